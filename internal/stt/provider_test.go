package stt

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/swarsmriti/voice-core/internal/config"
)

func modelArchive(t *testing.T, root string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	files := map[string]string{
		root + "am/final.mdl":   "acoustic-model",
		root + "conf/mfcc.conf": "mfcc-settings",
		root + "README":         "model readme",
	}
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create archive entry: %v", err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write archive entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return buf.Bytes()
}

func TestFetchModelFlattensRootDir(t *testing.T) {
	archive := modelArchive(t, "vosk-model-small-en-us-0.15/")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "model")
	if err := fetchModel(context.Background(), srv.URL, dest); err != nil {
		t.Fatalf("fetch model: %v", err)
	}

	for _, rel := range []string{"am/final.mdl", "conf/mfcc.conf", "README"} {
		if _, err := os.Stat(filepath.Join(dest, rel)); err != nil {
			t.Fatalf("expected %s under model root: %v", rel, err)
		}
	}
}

func TestFetchModelWithoutSharedRoot(t *testing.T) {
	archive := modelArchive(t, "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "model")
	if err := fetchModel(context.Background(), srv.URL, dest); err != nil {
		t.Fatalf("fetch model: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "README")); err != nil {
		t.Fatalf("expected README at model root: %v", err)
	}
}

func TestFetchModelBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	if err := fetchModel(context.Background(), srv.URL, t.TempDir()); err == nil {
		t.Fatal("expected error for missing archive")
	}
}

func TestUnpackModelRejectsTraversal(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("../escape.txt")
	if err != nil {
		t.Fatalf("create archive entry: %v", err)
	}
	if _, err := f.Write([]byte("nope")); err != nil {
		t.Fatalf("write archive entry: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}

	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.zip")
	if err := os.WriteFile(archive, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	if err := unpackModel(archive, filepath.Join(dir, "model")); err == nil {
		t.Fatal("expected traversal entry to be rejected")
	}
}

func TestProviderInitializesOnce(t *testing.T) {
	p := NewProvider(config.STTConfig{Mode: "mock"}, newLogger())

	var engines [8]Engine
	var errs [8]error
	var wg sync.WaitGroup
	var started atomic.Int32
	for i := 0; i < len(engines); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Add(1)
			engines[i], errs[i] = p.Engine(context.Background())
		}(i)
	}
	wg.Wait()

	for i := range engines {
		if errs[i] != nil {
			t.Fatalf("engine %d: %v", i, errs[i])
		}
		if engines[i] != engines[0] {
			t.Fatal("all callers must share one engine handle")
		}
	}
}
