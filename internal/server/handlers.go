package server

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/swarsmriti/voice-core/internal/fault"
)

const unclearSpeechPrompt = "The user's speech was unclear or unintelligible. " +
	"Respond kindly and ask them to repeat or rephrase."

// handleVoiceChat runs the full pipeline: save upload, normalize, transcribe,
// generate a reply, synthesize it, and hand back the transcript plus the
// audio session URL. Temp files are removed on every exit path.
func (s *Server) handleVoiceChat(c *gin.Context) {
	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "missing audio upload"})
		return
	}

	rawPath := s.uploadPath(file.Filename)
	if err := c.SaveUploadedFile(file, rawPath); err != nil {
		s.logger.Error("saving upload failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "could not store upload"})
		return
	}
	defer os.Remove(rawPath)

	ctx := c.Request.Context()
	wavPath, err := s.deps.Normalizer.Normalize(ctx, rawPath)
	if err != nil {
		s.failVoiceChat(c, "audio normalization failed", err)
		return
	}
	defer os.Remove(wavPath)

	transcript, err := s.deps.Transcriber.Decode(ctx, wavPath)
	if err != nil {
		s.failVoiceChat(c, "transcription failed", err)
		return
	}

	prompt := unclearSpeechPrompt
	if intelligible(transcript) {
		prompt = fmt.Sprintf(
			"You are a helpful voice assistant. Answer the user's request in a concise, friendly way.\n\nUser said: %q",
			transcript)
	}

	answer, err := s.deps.Generator.Generate(ctx, prompt)
	if err != nil {
		s.failVoiceChat(c, "reply generation failed", err)
		return
	}

	session, err := s.deps.Synth.SynthesizeReply(ctx, answer)
	if err != nil {
		s.failVoiceChat(c, "speech synthesis failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"transcript": transcript,
		"answer":     answer,
		"audio_url":  "/audio/" + session.ID,
	})
}

func (s *Server) failVoiceChat(c *gin.Context, message string, err error) {
	s.logger.Error(message, slog.String("error", err.Error()))
	c.JSON(statusFor(err), gin.H{"status": "error", "message": message})
}

type chatRequest struct {
	Question string `json:"question"`
}

// handleChat answers a typed question against stored memories: ranked
// snippets are prepended to the prompt, the reply is synthesized, and the
// caller gets both the text and the audio session URL.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "detail": "question must not be empty"})
		return
	}

	ctx := c.Request.Context()
	memories, err := s.deps.Memories.Query(ctx, req.Question)
	if err != nil {
		s.logger.Error("memory query failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "detail": "memory lookup failed"})
		return
	}

	var prompt strings.Builder
	prompt.WriteString("You are a helpful assistant. Answer using the context when it is relevant.\n\n")
	if len(memories) > 0 {
		prompt.WriteString("Context:\n")
		for _, m := range memories {
			prompt.WriteString("- ")
			prompt.WriteString(m.Snippet())
			prompt.WriteString("\n")
		}
		prompt.WriteString("\n")
	}
	prompt.WriteString("Question: ")
	prompt.WriteString(req.Question)

	answer, err := s.deps.Generator.Generate(ctx, prompt.String())
	if err != nil {
		s.logger.Error("reply generation failed", slog.String("error", err.Error()))
		c.JSON(statusFor(err), gin.H{"status": "error", "detail": "reply generation failed"})
		return
	}

	session, err := s.deps.Synth.SynthesizeReply(ctx, answer)
	if err != nil {
		s.logger.Error("speech synthesis failed", slog.String("error", err.Error()))
		c.JSON(statusFor(err), gin.H{"status": "error", "detail": "speech synthesis failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"answer":    answer,
			"audio_url": "/audio/" + session.ID,
		},
	})
}

// handleAudio streams a cached session's segments in order, paced so the
// client receives a steady feed rather than one burst.
func (s *Server) handleAudio(c *gin.Context) {
	segments, contentType, err := s.deps.Cache.Stream(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "detail": "Invalid or expired audio ID"})
		return
	}

	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	c.Stream(func(w io.Writer) bool {
		data, ok := <-segments
		if !ok {
			return false
		}
		if _, err := w.Write(data); err != nil {
			return false
		}
		return true
	})
}

// handleTranscribe decodes an uploaded canonical WAV without the rest of the
// pipeline.
func (s *Server) handleTranscribe(c *gin.Context) {
	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing audio upload"})
		return
	}

	wavPath := s.uploadPath(file.Filename)
	if err := c.SaveUploadedFile(file, wavPath); err != nil {
		s.logger.Error("saving upload failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store upload"})
		return
	}
	defer os.Remove(wavPath)

	transcript, err := s.deps.Transcriber.Decode(c.Request.Context(), wavPath)
	if err != nil {
		s.logger.Error("transcription failed", slog.String("error", err.Error()))
		c.JSON(statusFor(err), gin.H{"error": "transcription failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transcript": transcript})
}

type trainRequest struct {
	Text string `json:"text"`
	Tags string `json:"tags"`
}

// handleTrain stores a knowledge passage: too-short submissions are
// rejected, over-long ones truncated, and the generator condenses the text
// into the summary used for retrieval snippets.
func (s *Server) handleTrain(c *gin.Context) {
	var req trainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request body"})
		return
	}

	text := strings.TrimSpace(req.Text)
	minChars := s.deps.Config.Memory.MinTrainChars
	if len([]rune(text)) < minChars {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": fmt.Sprintf("training text must be at least %d characters", minChars),
		})
		return
	}
	if max := s.deps.Config.Memory.MaxTrainChars; max > 0 {
		if runes := []rune(text); len(runes) > max {
			text = string(runes[:max])
		}
	}

	ctx := c.Request.Context()
	summary, err := s.deps.Generator.Summarize(ctx, text)
	if err != nil {
		s.logger.Error("summarization failed", slog.String("error", err.Error()))
		c.JSON(statusFor(err), gin.H{"status": "error", "message": "summarization failed"})
		return
	}

	if _, err := s.deps.Memories.Store(ctx, text, summary, strings.TrimSpace(req.Tags)); err != nil {
		s.logger.Error("memory store failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "memory store failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "memory stored",
		"data":    gin.H{"summary": summary},
	})
}

// handleMemories lists stored memories, newest first.
func (s *Server) handleMemories(c *gin.Context) {
	memories, err := s.deps.Memories.List(c.Request.Context(), 100)
	if err != nil {
		s.logger.Error("memory list failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "detail": "memory list failed"})
		return
	}

	out := make([]gin.H, 0, len(memories))
	for _, m := range memories {
		out = append(out, gin.H{
			"id":         m.ID,
			"text":       m.Text,
			"summary":    m.Summary,
			"tags":       m.Tags,
			"created_at": m.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": out})
}

// uploadPath picks a collision-free temp location preserving the upload's
// extension so the transcoder can sniff the container.
func (s *Server) uploadPath(filename string) string {
	dir := s.deps.Config.Ingest.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, uuid.NewString()+filepath.Ext(filename))
}

// intelligible reports whether a transcript is worth answering: at least
// three characters and at least one letter.
func intelligible(transcript string) bool {
	trimmed := strings.TrimSpace(transcript)
	if len([]rune(trimmed)) < 3 {
		return false
	}
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// statusFor maps fault kinds onto HTTP statuses. Unknown errors are server
// faults.
func statusFor(err error) int {
	switch fault.KindOf(err) {
	case fault.KindInvalidInput, fault.KindInvalidAudio:
		return http.StatusBadRequest
	case fault.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
