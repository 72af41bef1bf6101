package memory

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/swarsmriti/voice-core/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openTestStore(t *testing.T, maxResults int) *Store {
	t.Helper()
	cfg := config.MemoryConfig{
		Path:       filepath.Join(t.TempDir(), "memories.db"),
		MaxResults: maxResults,
	}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreAndList(t *testing.T) {
	s := openTestStore(t, 3)

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.clock = func() time.Time { return ts }
	if _, err := s.Store(context.Background(), "the warehouse opens at nine", "warehouse opens 9am", "ops"); err != nil {
		t.Fatalf("store: %v", err)
	}
	s.clock = func() time.Time { return ts.Add(time.Hour) }
	if _, err := s.Store(context.Background(), "deliveries arrive on tuesdays", "", ""); err != nil {
		t.Fatalf("store: %v", err)
	}

	memories, err := s.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(memories) != 2 {
		t.Fatalf("expected 2 memories, got %d", len(memories))
	}
	if memories[0].Text != "deliveries arrive on tuesdays" {
		t.Fatalf("list must be newest first, got %q", memories[0].Text)
	}
	if memories[1].Summary != "warehouse opens 9am" || memories[1].Tags != "ops" {
		t.Fatalf("summary and tags must round-trip, got %+v", memories[1])
	}
}

func TestSnippetPrefersSummary(t *testing.T) {
	withSummary := Memory{Text: "long trained passage", Summary: "short form"}
	if withSummary.Snippet() != "short form" {
		t.Fatalf("unexpected snippet %q", withSummary.Snippet())
	}
	bare := Memory{Text: "long trained passage"}
	if bare.Snippet() != "long trained passage" {
		t.Fatalf("unexpected snippet %q", bare.Snippet())
	}
}

func TestQueryRanksByTermOverlap(t *testing.T) {
	s := openTestStore(t, 3)

	entries := []string{
		"the coffee machine is on the second floor",
		"coffee beans get restocked every friday morning",
		"the parking garage closes at midnight",
	}
	for _, e := range entries {
		if _, err := s.Store(context.Background(), e, "", ""); err != nil {
			t.Fatalf("store: %v", err)
		}
	}

	memories, err := s.Query(context.Background(), "when do coffee beans get restocked?")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(memories) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(memories))
	}
	if memories[0].Text != "coffee beans get restocked every friday morning" {
		t.Fatalf("best overlap must rank first, got %q", memories[0].Text)
	}
}

func TestQueryMatchesSummary(t *testing.T) {
	s := openTestStore(t, 3)

	if _, err := s.Store(context.Background(),
		"a very long passage about facilities", "printer lives in room 204", "office"); err != nil {
		t.Fatalf("store: %v", err)
	}
	memories, err := s.Query(context.Background(), "where is the printer?")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(memories) != 1 {
		t.Fatalf("expected summary terms to match, got %d results", len(memories))
	}
}

func TestQueryHonorsMaxResults(t *testing.T) {
	s := openTestStore(t, 2)

	for i := 0; i < 5; i++ {
		if _, err := s.Store(context.Background(), "office hours run nine to five", "", ""); err != nil {
			t.Fatalf("store: %v", err)
		}
	}
	memories, err := s.Query(context.Background(), "what are the office hours?")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(memories) != 2 {
		t.Fatalf("expected max_results cap of 2, got %d", len(memories))
	}
}

func TestQueryNoOverlapReturnsNothing(t *testing.T) {
	s := openTestStore(t, 3)

	if _, err := s.Store(context.Background(), "the printer is in room 204", "", ""); err != nil {
		t.Fatalf("store: %v", err)
	}
	memories, err := s.Query(context.Background(), "favorite lunch spots nearby")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(memories) != 0 {
		t.Fatalf("expected no matches, got %d", len(memories))
	}
}

func TestQueryTermsDropShortAndDuplicateWords(t *testing.T) {
	terms := queryTerms("Is it in the warehouse, the warehouse?")
	if len(terms) != 2 {
		t.Fatalf("expected 2 distinct terms, got %v", terms)
	}
	if terms[0] != "the" || terms[1] != "warehouse" {
		t.Fatalf("unexpected terms %v", terms)
	}
}
