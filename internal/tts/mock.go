package tts

import "context"

type mockSynth struct{}

// NewMockSynth returns a synthesizer producing deterministic fake audio, for
// development without upstream credentials.
func NewMockSynth() Synthesizer {
	return &mockSynth{}
}

func (m *mockSynth) ContentType() string {
	return "audio/mpeg"
}

func (m *mockSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return []byte("mock-audio:" + text), nil
}
