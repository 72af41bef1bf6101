package memory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/swarsmriti/voice-core/internal/config"
	_ "modernc.org/sqlite"
)

// Memory is one stored knowledge entry: the trained text, the generated
// summary used as a conversation snippet, and free-form tags.
type Memory struct {
	ID        int64
	Text      string
	Summary   string
	Tags      string
	CreatedAt time.Time
}

// Snippet is the short form injected into prompts. The summary when one was
// generated, the raw text otherwise.
func (m Memory) Snippet() string {
	if strings.TrimSpace(m.Summary) != "" {
		return m.Summary
	}
	return m.Text
}

// Store wraps a SQLite-backed memory table.
type Store struct {
	db    *sql.DB
	cfg   config.MemoryConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the memory store according to config.
func Open(ctx context.Context, cfg config.MemoryConfig, log *slog.Logger) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS memories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    text TEXT NOT NULL,
    summary TEXT,
    tags TEXT,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Store writes one memory entry and returns its row id.
func (s *Store) Store(ctx context.Context, text, summary, tags string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO memories(text, summary, tags, created_at) VALUES(?, ?, ?, ?)`,
		text, summary, tags, s.clock().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// List retrieves up to limit memories ordered newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Memory, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, summary, tags, created_at FROM memories
		 ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMemories(rows)
}

// Query returns the memories most relevant to the question, ranked by how
// many distinct question terms each entry contains. Entries sharing no terms
// with the question are left out; at most max_results entries come back.
func (s *Store) Query(ctx context.Context, question string) ([]Memory, error) {
	terms := queryTerms(question)
	if len(terms) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, text, summary, tags, created_at FROM memories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	all, err := scanMemories(rows)
	if err != nil {
		return nil, err
	}

	type scored struct {
		memory Memory
		score  int
	}
	var candidates []scored
	for _, m := range all {
		if score := overlap(terms, m.Text+" "+m.Summary); score > 0 {
			candidates = append(candidates, scored{memory: m, score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].memory.CreatedAt.After(candidates[j].memory.CreatedAt)
	})

	max := s.cfg.MaxResults
	if max <= 0 || max > len(candidates) {
		max = len(candidates)
	}
	results := make([]Memory, 0, max)
	for _, c := range candidates[:max] {
		results = append(results, c.memory)
	}
	return results, nil
}

func scanMemories(rows *sql.Rows) ([]Memory, error) {
	var memories []Memory
	for rows.Next() {
		var m Memory
		var summary, tags sql.NullString
		var created string
		if err := rows.Scan(&m.ID, &m.Text, &summary, &tags, &created); err != nil {
			return nil, err
		}
		m.Summary = summary.String
		m.Tags = tags.String
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			m.CreatedAt = ts
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// queryTerms lowercases the question and keeps distinct words of three or
// more characters, so one- and two-letter filler does not drive the ranking.
func queryTerms(question string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(question)) {
		word = strings.Trim(word, ".,!?;:\"'()")
		if len(word) < 3 {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		terms = append(terms, word)
	}
	return terms
}

func overlap(terms []string, content string) int {
	lowered := strings.ToLower(content)
	score := 0
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			score++
		}
	}
	return score
}
