package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/swarsmriti/voice-core/internal/audiocache"
	"github.com/swarsmriti/voice-core/internal/config"
	"github.com/swarsmriti/voice-core/internal/ingest"
	"github.com/swarsmriti/voice-core/internal/llm"
	"github.com/swarsmriti/voice-core/internal/memory"
	"github.com/swarsmriti/voice-core/internal/server"
	"github.com/swarsmriti/voice-core/internal/stt"
	"github.com/swarsmriti/voice-core/internal/tts"
)

// Version is overridable at link time and reported on the telemetry
// resource and the -version flag.
var Version = "0.1.0-dev"

// Runtime assembles the pipeline components and runs the HTTP surface until
// the context is cancelled.
type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error
	ready       atomic.Bool
	wg          sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	cache := audiocache.New(r.cfg.AudioCache, r.logger)

	var synth tts.Synthesizer
	if r.cfg.TTS.Mode == "mock" {
		synth = tts.NewMockSynth()
	} else {
		synth = tts.NewElevenLabsSynth(r.cfg.TTS)
	}
	orchestrator := tts.NewOrchestrator(r.cfg.TTS, synth, cache, r.logger)

	normalizer, err := ingest.New(r.cfg.Ingest, r.cfg.STT.SampleRate, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup audio ingest: %w", err)
	}

	decoder := stt.NewDecoder(r.cfg.STT, stt.NewProvider(r.cfg.STT, r.logger), r.logger)

	var generator llm.Generator
	if r.cfg.LLM.Mode == "mock" {
		generator = llm.NewMockGenerator()
	} else {
		generator = llm.NewCohereGenerator(r.cfg.LLM)
	}

	store, err := memory.Open(ctx, r.cfg.Memory, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open memory store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			r.logger.Error("memory store close error", slog.String("error", err.Error()))
		}
	}()

	srv := server.New(server.Deps{
		Config:      r.cfg,
		Logger:      r.logger,
		Cache:       cache,
		Synth:       orchestrator,
		Normalizer:  normalizer,
		Transcriber: decoder,
		Generator:   generator,
		Memories:    store,
		Metrics:     metricsHandler,
		Ready:       r.ready.Load,
	})

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started", slog.String("addr", addr))

	<-ctx.Done()
	r.logger.Info("runtime stopping")
	r.ready.Store(false)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}
