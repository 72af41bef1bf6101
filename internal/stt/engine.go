package stt

import "context"

// Engine is a loaded recognition model. It is read-only and safe to share:
// each decode call derives its own Stream against the engine.
type Engine interface {
	NewStream(sampleRate int) (Stream, error)
}

// Stream is a per-call recognizer fed PCM blocks in playback order.
type Stream interface {
	// Feed pushes one block of little-endian 16-bit PCM. When the engine
	// detects an utterance boundary inside the block it returns the
	// finalized text with final=true; otherwise final is false and text is
	// empty.
	Feed(pcm []byte) (text string, final bool, err error)

	// Flush finalizes the stream and returns any trailing recognized text.
	Flush() (string, error)

	// Close releases recognizer resources.
	Close()
}

// EngineProvider hands out the process-wide engine, performing one-time
// initialization (model download and load) on first use.
type EngineProvider interface {
	Engine(ctx context.Context) (Engine, error)
}
