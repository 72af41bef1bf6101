package fault

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "error with cause",
			err: Wrap(KindSynthesis, "synthesize", "tts upstream failed",
				errors.New("status 502")),
			contains: []string{"[synthesis:synthesize]", "tts upstream failed", "status 502"},
		},
		{
			name:     "error without cause",
			err:      New(KindNotFound, "get", "unknown session"),
			contains: []string{"[not_found:get]", "unknown session"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()
			for _, substr := range tt.contains {
				if !strings.Contains(errStr, substr) {
					t.Errorf("error string %q does not contain %q", errStr, substr)
				}
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	original := errors.New("connection refused")
	wrapped := Wrap(KindGeneration, "generate", "upstream call failed", original)

	if !errors.Is(wrapped, original) {
		t.Error("wrapped error should match its cause with errors.Is")
	}
}

func TestWrapKeepsExistingKind(t *testing.T) {
	inner := New(KindInvalidAudio, "decode", "stereo input")
	outer := Wrap(KindUnknown, "transcribe", "decode failed", fmt.Errorf("wrapped: %w", inner))

	if outer.Kind != KindInvalidAudio {
		t.Fatalf("expected inner kind to survive, got %s", outer.Kind)
	}
}

func TestIsKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     Kind
		expected bool
	}{
		{
			name:     "direct match",
			err:      New(KindNotFound, "get", "missing"),
			kind:     KindNotFound,
			expected: true,
		},
		{
			name:     "fmt-wrapped match",
			err:      fmt.Errorf("handler: %w", New(KindNormalization, "convert", "ffmpeg exit 1")),
			kind:     KindNormalization,
			expected: true,
		},
		{
			name:     "mismatch",
			err:      New(KindSynthesis, "synthesize", "bad status"),
			kind:     KindGeneration,
			expected: false,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			kind:     KindSynthesis,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsKind(tt.err, tt.kind); got != tt.expected {
				t.Errorf("IsKind() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(New(KindInvalidInput, "chunk", "nil text")); got != KindInvalidInput {
		t.Fatalf("expected invalid_input, got %s", got)
	}
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Fatalf("expected unknown, got %s", got)
	}
}
