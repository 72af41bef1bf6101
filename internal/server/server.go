package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/swarsmriti/voice-core/internal/audiocache"
	"github.com/swarsmriti/voice-core/internal/config"
	"github.com/swarsmriti/voice-core/internal/llm"
	"github.com/swarsmriti/voice-core/internal/memory"
)

// ReplySynthesizer turns reply text into a cached, streamable audio session.
type ReplySynthesizer interface {
	SynthesizeReply(ctx context.Context, text string) (*audiocache.Session, error)
}

// Normalizer converts an uploaded file into a canonical WAV and returns its
// path.
type Normalizer interface {
	Normalize(ctx context.Context, inputPath string) (string, error)
}

// Transcriber produces a transcript from a canonical WAV file.
type Transcriber interface {
	Decode(ctx context.Context, wavPath string) (string, error)
}

// MemoryStore is the trained-knowledge backend.
type MemoryStore interface {
	Store(ctx context.Context, text, summary, tags string) (int64, error)
	Query(ctx context.Context, question string) ([]memory.Memory, error)
	List(ctx context.Context, limit int) ([]memory.Memory, error)
}

// Deps carries everything the HTTP surface needs. Metrics and Ready are
// optional; absent metrics drops the /metrics route and absent Ready reports
// always-ready.
type Deps struct {
	Config      config.Config
	Logger      *slog.Logger
	Cache       *audiocache.Cache
	Synth       ReplySynthesizer
	Normalizer  Normalizer
	Transcriber Transcriber
	Generator   llm.Generator
	Memories    MemoryStore
	Metrics     http.Handler
	Ready       func() bool
}

// Server is the gin-backed HTTP surface of the voice pipeline.
type Server struct {
	deps   Deps
	logger *slog.Logger
}

func New(deps Deps) *Server {
	return &Server{
		deps:   deps,
		logger: deps.Logger.With(slog.String("component", "http")),
	}
}

// Router builds the gin engine with recovery, request logging, permissive
// CORS, and every route mounted.
func (s *Server) Router() *gin.Engine {
	if s.deps.Config.Environment == "development" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.loggingMiddleware())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	engine.POST("/voice-chat", s.handleVoiceChat)
	engine.POST("/chat", s.handleChat)
	engine.GET("/audio/:id", s.handleAudio)
	engine.POST("/transcribe", s.handleTranscribe)
	engine.POST("/train", s.handleTrain)
	engine.GET("/memories", s.handleMemories)

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/readyz", s.handleReady)
	if s.deps.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(s.deps.Metrics))
	}
	return engine
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request handled",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) handleReady(c *gin.Context) {
	if s.deps.Ready == nil || s.deps.Ready() {
		c.String(http.StatusOK, "ready")
		return
	}
	c.String(http.StatusServiceUnavailable, "not ready")
}
