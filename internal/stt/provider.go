package stt

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/swarsmriti/voice-core/internal/config"
)

// Provider owns the lazily-initialized, process-wide recognition engine.
// The first Engine call downloads and unpacks the model archive when the
// model directory is missing, then loads it; concurrent first callers block
// on that one initialization and every later call returns the same handle.
type Provider struct {
	cfg    config.STTConfig
	logger *slog.Logger
	once   sync.Once
	engine Engine
	err    error
}

func NewProvider(cfg config.STTConfig, logger *slog.Logger) *Provider {
	return &Provider{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "stt")),
	}
}

func (p *Provider) Engine(ctx context.Context) (Engine, error) {
	p.once.Do(func() {
		p.engine, p.err = p.load(ctx)
	})
	return p.engine, p.err
}

func (p *Provider) load(ctx context.Context) (Engine, error) {
	if p.cfg.Mode == "mock" {
		return NewMockEngine(""), nil
	}

	if _, err := os.Stat(p.cfg.ModelPath); os.IsNotExist(err) {
		if p.cfg.ModelURL == "" {
			return nil, fmt.Errorf("recognition model missing at %s and no model_url configured", p.cfg.ModelPath)
		}
		p.logger.Info("recognition model not found, downloading",
			slog.String("url", p.cfg.ModelURL),
			slog.String("dest", p.cfg.ModelPath))
		start := time.Now()
		if err := fetchModel(ctx, p.cfg.ModelURL, p.cfg.ModelPath); err != nil {
			return nil, err
		}
		p.logger.Info("recognition model ready", slog.Duration("elapsed", time.Since(start)))
	}

	return newVoskEngine(p.cfg.ModelPath)
}

// fetchModel downloads a zip archive and extracts it into dest. Archives
// published with a single top-level directory (the usual model packaging)
// are flattened so dest itself becomes the model root.
func fetchModel(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build model request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download model: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download model: unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp("", "voice_model_*.zip")
	if err != nil {
		return fmt.Errorf("model temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return fmt.Errorf("save model archive: %w", err)
	}
	return unpackModel(tmp.Name(), dest)
}

func unpackModel(archivePath, dest string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open model archive: %w", err)
	}
	defer reader.Close()

	root := commonRoot(reader.File)
	for _, file := range reader.File {
		name := file.Name
		if root != "" {
			name = strings.TrimPrefix(name, root)
		}
		name = strings.TrimPrefix(name, "/")
		if name == "" {
			continue
		}

		target := filepath.Join(dest, filepath.FromSlash(name))
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("model archive entry escapes destination: %s", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create model dir: %w", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create model dir: %w", err)
		}
		if err := extractFile(file, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(file *zip.File, target string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", file.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
	if err != nil {
		return fmt.Errorf("create model file %s: %w", target, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("extract model file %s: %w", target, err)
	}
	return nil
}

// commonRoot returns the single leading directory shared by every archive
// entry, or "" when the entries do not share one.
func commonRoot(files []*zip.File) string {
	var root string
	for _, f := range files {
		name := strings.TrimPrefix(f.Name, "/")
		idx := strings.Index(name, "/")
		if idx < 0 {
			return ""
		}
		prefix := name[:idx+1]
		if root == "" {
			root = prefix
			continue
		}
		if prefix != root {
			return ""
		}
	}
	return root
}
