package tts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/swarsmriti/voice-core/internal/audiocache"
	"github.com/swarsmriti/voice-core/internal/config"
	"github.com/swarsmriti/voice-core/internal/fault"
)

// Orchestrator turns a full reply into an ordered, cached audio session. It
// is fail-fast: if any chunk fails to synthesize, outstanding chunk calls
// are cancelled and no session is registered, so a session visible in the
// cache is always complete.
type Orchestrator struct {
	synth       Synthesizer
	cache       *audiocache.Cache
	maxChunk    int
	concurrency int
	logger      *slog.Logger
}

func NewOrchestrator(cfg config.TTSConfig, synth Synthesizer, cache *audiocache.Cache, logger *slog.Logger) *Orchestrator {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		synth:       synth,
		cache:       cache,
		maxChunk:    cfg.MaxChunkChars,
		concurrency: concurrency,
		logger:      logger.With(slog.String("component", "tts-orchestrator")),
	}
}

// SynthesizeReply chunks text, synthesizes every chunk, and registers the
// resulting segments under a fresh session id. Segment order always matches
// chunk order: chunks may be synthesized concurrently (bounded by the
// configured limit, 1 meaning strictly sequential), but results are
// reassembled by chunk index before the session becomes visible.
func (o *Orchestrator) SynthesizeReply(ctx context.Context, text string) (*audiocache.Session, error) {
	start := time.Now()
	chunks, err := SplitChunks(text, o.maxChunk)
	if err != nil {
		return nil, err
	}

	segments := make([]audiocache.Segment, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for _, chunk := range chunks {
		g.Go(func() error {
			// A prior chunk failure cancels the group; skip instead of
			// issuing a doomed upstream call.
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := o.synth.Synthesize(gctx, chunk.Text)
			if err != nil {
				return fault.Wrap(fault.KindSynthesis, "synthesize_reply",
					fmt.Sprintf("chunk %d of %d failed", chunk.Index, len(chunks)), err)
			}
			segments[chunk.Index] = audiocache.Segment{Index: chunk.Index, Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	session := &audiocache.Session{
		ID:          uuid.NewString(),
		Segments:    segments,
		ContentType: o.synth.ContentType(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := o.cache.Put(session); err != nil {
		return nil, err
	}

	o.logger.Info("reply synthesized",
		slog.String("session_id", session.ID),
		slog.Int("chunks", len(chunks)),
		slog.Duration("elapsed", time.Since(start)))
	return session, nil
}
