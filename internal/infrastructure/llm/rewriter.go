package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/herdirudian/pressflow/internal/config"
	"github.com/herdirudian/pressflow/internal/domain"
	"github.com/herdirudian/pressflow/internal/ports"
)

// RewriteClient calls an OpenAI-compatible chat endpoint to rewrite raw
// article text into a structured, scored draft.
type RewriteClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ ports.Rewriter = (*RewriteClient)(nil)

// NewRewriteClient builds a client from configuration.
func NewRewriteClient(cfg config.RewriteConfig) *RewriteClient {
	return &RewriteClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Rewrite sends the raw text and title and parses the structured result.
// Transport and HTTP-level failures return an error; a response the
// model filled with garbage comes back as a zero-score Rewrite instead,
// so the caller's skip-on-low-score path handles both the same way.
func (c *RewriteClient) Rewrite(ctx context.Context, content, title string) (domain.Rewrite, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return domain.Rewrite{}, fmt.Errorf("rewrite client misconfigured")
	}

	userPayload, err := json.Marshal(map[string]string{
		"title":   title,
		"content": content,
	})
	if err != nil {
		return domain.Rewrite{}, fmt.Errorf("marshal article payload: %w", err)
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": c.systemPrompt},
			{"role": "user", "content": string(userPayload)},
		},
	})
	if err != nil {
		return domain.Rewrite{}, fmt.Errorf("marshal rewrite payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Rewrite{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Rewrite{}, fmt.Errorf("call rewrite service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Rewrite{}, fmt.Errorf("rewrite service error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return domain.Rewrite{}, fmt.Errorf("decode rewrite response: %w", err)
	}

	if len(chat.Choices) == 0 {
		return domain.Rewrite{}, nil
	}

	return parseRewrite(chat.Choices[0].Message.Content), nil
}

// parseRewrite extracts the structured rewrite from the model output.
// Anything that does not parse is a zero-score rewrite.
func parseRewrite(raw string) domain.Rewrite {
	var rewrite domain.Rewrite
	if err := json.Unmarshal([]byte(stripFences(raw)), &rewrite); err != nil {
		return domain.Rewrite{}
	}
	return rewrite
}

// stripFences removes a markdown code fence the model may wrap the JSON in.
func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
