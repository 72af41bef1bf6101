package tts

import "context"

// Synthesizer converts one text chunk into one encoded audio blob. It
// performs no retries; retry policy, if any, belongs to the caller.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// ContentType reports the media type of the blobs Synthesize produces.
	// Delivery declares this per session, so a synthesizer swap never leaves
	// a stale hardcoded type behind.
	ContentType() string
}
