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

	"github.com/swarsmriti/voice-core/internal/config"
	"github.com/swarsmriti/voice-core/internal/fault"
)

const maxErrorBody = 512

type cohereGenerator struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewCohereGenerator builds a Generator backed by the Cohere chat and
// summarize endpoints. Replies are capped at the configured word count so a
// runaway completion does not burn synthesis credit downstream.
func NewCohereGenerator(cfg config.LLMConfig) Generator {
	return &cohereGenerator{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

type cohereChatRequest struct {
	Model       string   `json:"model"`
	Message     string   `json:"message"`
	ChatHistory []string `json:"chat_history"`
}

type cohereChatResponse struct {
	Text  string `json:"text"`
	Reply string `json:"reply"`
}

type cohereSummarizeRequest struct {
	Text   string `json:"text"`
	Length string `json:"length"`
	Format string `json:"format"`
}

type cohereSummarizeResponse struct {
	Summary string `json:"summary"`
}

func (g *cohereGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	payload := cohereChatRequest{
		Model:       g.cfg.Model,
		Message:     prompt,
		ChatHistory: []string{},
	}
	var resp cohereChatResponse
	if err := g.post(ctx, "/chat", payload, &resp); err != nil {
		return "", err
	}

	answer := resp.Text
	if answer == "" {
		answer = resp.Reply
	}
	return capWords(answer, g.cfg.MaxWords), nil
}

func (g *cohereGenerator) Summarize(ctx context.Context, text string) (string, error) {
	payload := cohereSummarizeRequest{
		Text:   text,
		Length: "short",
		Format: "paragraph",
	}
	var resp cohereSummarizeResponse
	if err := g.post(ctx, "/summarize", payload, &resp); err != nil {
		return "", err
	}
	return resp.Summary, nil
}

func (g *cohereGenerator) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fault.Wrap(fault.KindGeneration, "generate", "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fault.Wrap(fault.KindGeneration, "generate", "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fault.Wrap(fault.KindGeneration, "generate", "generation request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fault.New(fault.KindGeneration, "generate",
			fmt.Sprintf("generation upstream returned %d: %s", resp.StatusCode, detail))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fault.Wrap(fault.KindGeneration, "generate", "decode response", err)
	}
	return nil
}

// capWords truncates answer to at most max words, marking the cut with an
// ellipsis. max <= 0 disables the cap.
func capWords(answer string, max int) string {
	if max <= 0 {
		return answer
	}
	words := strings.Fields(answer)
	if len(words) <= max {
		return answer
	}
	return strings.Join(words[:max], " ") + "..."
}
