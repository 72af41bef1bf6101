package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/swarsmriti/voice-core/internal/config"
	"github.com/swarsmriti/voice-core/internal/fault"
)

// Normalizer converts arbitrary uploaded audio into the canonical decode
// format: mono, 16 kHz, 16-bit PCM WAV. Conversion runs an external
// transcoder (ffmpeg by default) as a subprocess; the command line is
// configurable and parsed shell-style so wrappers and extra flags work.
type Normalizer struct {
	cmd        []string
	sampleRate int
	logger     *slog.Logger
}

func New(cfg config.IngestConfig, sampleRate int, logger *slog.Logger) (*Normalizer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse ingest command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("ingest command empty")
	}
	return &Normalizer{
		cmd:        args,
		sampleRate: sampleRate,
		logger:     logger.With(slog.String("component", "ingest")),
	}, nil
}

// Normalize transcodes the file at inputPath and returns the path of the
// produced WAV, derived from inputPath. The caller owns both files and must
// remove them when decoding finishes, on every exit path.
func (n *Normalizer) Normalize(ctx context.Context, inputPath string) (string, error) {
	binary := n.cmd[0]
	if _, err := exec.LookPath(binary); err != nil {
		return "", fault.Wrap(fault.KindNormalization, "normalize",
			fmt.Sprintf("%s not found on host", binary), err)
	}

	outputPath := wavPathFor(inputPath)
	args := append([]string{}, n.cmd[1:]...)
	args = append(args,
		"-y",
		"-i", inputPath,
		"-ar", fmt.Sprintf("%d", n.sampleRate),
		"-ac", "1",
		outputPath,
	)

	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	n.logger.Debug("normalizing upload",
		slog.String("input", inputPath),
		slog.String("output", outputPath))

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > 512 {
			detail = detail[len(detail)-512:]
		}
		return "", fault.Wrap(fault.KindNormalization, "normalize",
			fmt.Sprintf("transcode failed: %s", detail), err)
	}
	return outputPath, nil
}

func wavPathFor(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + "_converted.wav"
}
