package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/swarsmriti/voice-core/internal/config"
	"github.com/swarsmriti/voice-core/internal/fault"
)

const maxErrorBody = 512

type elevenLabsSynth struct {
	cfg    config.TTSConfig
	client *http.Client
}

type elevenLabsRequest struct {
	ModelID       string             `json:"model_id"`
	VoiceSettings elevenLabsSettings `json:"voice_settings"`
	Text          string             `json:"text"`
}

type elevenLabsSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// NewElevenLabsSynth builds a Synthesizer backed by the ElevenLabs
// text-to-speech REST API. Each call is a single bounded request producing
// one MP3 blob; nothing is written to disk.
func NewElevenLabsSynth(cfg config.TTSConfig) Synthesizer {
	return &elevenLabsSynth{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

func (e *elevenLabsSynth) ContentType() string {
	return "audio/mpeg"
}

func (e *elevenLabsSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	payload := elevenLabsRequest{
		ModelID: e.cfg.ModelID,
		VoiceSettings: elevenLabsSettings{
			Stability:       e.cfg.Stability,
			SimilarityBoost: e.cfg.Similarity,
		},
		Text: text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fault.Wrap(fault.KindSynthesis, "synthesize", "marshal request", err)
	}

	url := fmt.Sprintf("%s/%s", e.cfg.Endpoint, e.cfg.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fault.Wrap(fault.KindSynthesis, "synthesize", "build request", err)
	}
	req.Header.Set("xi-api-key", e.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", e.ContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fault.Wrap(fault.KindSynthesis, "synthesize", "tts request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fault.New(fault.KindSynthesis, "synthesize",
			fmt.Sprintf("tts upstream returned %d: %s", resp.StatusCode, detail))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Wrap(fault.KindSynthesis, "synthesize", "read tts response", err)
	}
	return audio, nil
}
