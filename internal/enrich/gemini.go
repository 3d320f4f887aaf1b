package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const geminiURL = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

const geminiInstructions = `You are ChangeSense AI. You must NOT invent changes. ` +
	`Only interpret the facts provided. Output valid JSON ONLY.

Rules:
- Separate facts from interpretation.
- Use cautious language: may/likely.
- Cite deterministic IDs in citations_to_facts.
- If uncertain, lower confidence.

Return JSON with keys: insights, impacts, summaries.
`

// GeminiProvider calls the Gemini generateContent API to interpret a
// comparison payload.
type GeminiProvider struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewGeminiProvider(apiKey, model string, timeout time.Duration) *GeminiProvider {
	return &GeminiProvider{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// BuildPrompt renders the fixed instructions plus the payload digest.
func BuildPrompt(payload *Payload) (string, error) {
	facts, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	var sb strings.Builder
	sb.WriteString(geminiInstructions)
	sb.WriteString("\nFACTS:\n")
	sb.Write(facts)
	sb.WriteString("\n")
	return sb.String(), nil
}

// Submit sends the payload digest and parses the model's JSON answer. A
// syntactically valid but schema-violating answer is an error; a non-JSON
// answer is preserved in RawText with empty lists.
func (p *GeminiProvider) Submit(ctx context.Context, payload *Payload) (*Response, error) {
	prompt, err := BuildPrompt(payload)
	if err != nil {
		return nil, err
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf(geminiURL, p.model), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("gemini error: %s: %s", apiResp.Error.Status, apiResp.Error.Message)
	}
	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from gemini")
	}

	text := stripCodeBlock(apiResp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return nil, fmt.Errorf("empty response from gemini")
	}

	return ParseResponse(text)
}

// ParseResponse validates and decodes the model's answer. Non-JSON text
// degrades to an empty response carrying the raw text.
func ParseResponse(text string) (*Response, error) {
	if !json.Valid([]byte(text)) {
		out := Fallback()
		out.AIEnabled = true
		out.RawText = text
		return out, nil
	}

	if err := ValidateResponse(text); err != nil {
		return nil, err
	}

	var out Response
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("parse enrichment json: %w", err)
	}
	out.AIEnabled = true
	return &out, nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// Close releases resources.
func (p *GeminiProvider) Close() {
	p.httpClient.CloseIdleConnections()
}
