package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/swarsmriti/voice-core/internal/config"
	"github.com/swarsmriti/voice-core/internal/fault"
)

func elevenLabsConfig(endpoint string) config.TTSConfig {
	return config.TTSConfig{
		APIKey:     "test-key",
		Endpoint:   endpoint,
		VoiceID:    "voice-1",
		ModelID:    "eleven_multilingual_v2",
		Stability:  0.5,
		Similarity: 0.5,
		TimeoutMS:  5000,
	}
}

func TestElevenLabsSynthesize(t *testing.T) {
	var gotPath, gotKey string
	var gotBody elevenLabsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	t.Cleanup(srv.Close)

	synth := NewElevenLabsSynth(elevenLabsConfig(srv.URL))
	audio, err := synth.Synthesize(context.Background(), "Hello there.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(audio, []byte("mp3-bytes")) {
		t.Fatalf("unexpected audio payload %q", audio)
	}
	if gotPath != "/voice-1" {
		t.Fatalf("expected voice id in path, got %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if gotBody.Text != "Hello there." || gotBody.ModelID != "eleven_multilingual_v2" {
		t.Fatalf("unexpected request payload %+v", gotBody)
	}
}

func TestElevenLabsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid api key"}`))
	}))
	t.Cleanup(srv.Close)

	synth := NewElevenLabsSynth(elevenLabsConfig(srv.URL))
	_, err := synth.Synthesize(context.Background(), "Hello.")
	if !fault.IsKind(err, fault.KindSynthesis) {
		t.Fatalf("expected synthesis fault, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "401") || !strings.Contains(msg, "invalid api key") {
		t.Fatalf("fault should carry upstream status and body, got %q", msg)
	}
}

func TestElevenLabsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	synth := NewElevenLabsSynth(elevenLabsConfig(srv.URL))
	if _, err := synth.Synthesize(context.Background(), "Hello."); !fault.IsKind(err, fault.KindSynthesis) {
		t.Fatalf("expected synthesis fault on transport error, got %v", err)
	}
}
