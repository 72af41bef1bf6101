package audiocache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/swarsmriti/voice-core/internal/config"
	"github.com/swarsmriti/voice-core/internal/fault"
)

// Segment is the synthesized audio for one text chunk. Index matches the
// chunk index the bytes were produced from; segments are immutable once
// cached.
type Segment struct {
	Index int
	Data  []byte
}

// Session scopes one synthesized reply's ordered segments under an opaque id.
type Session struct {
	ID          string
	Segments    []Segment
	ContentType string
	CreatedAt   time.Time
}

// Bytes returns the concatenation of all segment payloads in order.
func (s *Session) Bytes() []byte {
	var total int
	for _, seg := range s.Segments {
		total += len(seg.Data)
	}
	out := make([]byte, 0, total)
	for _, seg := range s.Segments {
		out = append(out, seg.Data...)
	}
	return out
}

// Cache maps session ids to completed sessions. Sessions are write-once: a
// session becomes visible only after synthesis of the full reply finished,
// and is never mutated afterwards.
//
// The default configuration (max_sessions 0, ttl 0) retains sessions for the
// process lifetime, matching the original behavior. Non-zero bounds switch on
// LRU eviction and expiry; an evicted id is indistinguishable from an unknown
// one.
type Cache struct {
	entries *expirable.LRU[string, *Session]
	pacing  time.Duration
	mu      sync.Mutex
	log     *slog.Logger
}

func New(cfg config.AudioCacheConfig, log *slog.Logger) *Cache {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	return &Cache{
		entries: expirable.NewLRU[string, *Session](cfg.MaxSessions, nil, ttl),
		pacing:  time.Duration(cfg.PacingMS) * time.Millisecond,
		log:     log.With(slog.String("component", "audio-cache")),
	}
}

// Put registers a completed session. Ids come from a unique generator, so a
// duplicate means a caller bug rather than a collision.
func (c *Cache) Put(session *Session) error {
	if session == nil || session.ID == "" {
		return fault.New(fault.KindInvalidInput, "put", "session must carry an id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries.Contains(session.ID) {
		return fault.New(fault.KindInvalidInput, "put", "session id already registered")
	}
	c.entries.Add(session.ID, session)

	c.log.Debug("session cached",
		slog.String("session_id", session.ID),
		slog.Int("segments", len(session.Segments)))
	return nil
}

// Get returns the session for id, or a not-found fault when the id is
// unknown, expired, or evicted.
func (c *Cache) Get(id string) (*Session, error) {
	if session, ok := c.entries.Get(id); ok {
		return session, nil
	}
	return nil, fault.New(fault.KindNotFound, "get", "invalid or expired audio id")
}

// Len reports the number of live sessions.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Stream produces the session's segments in order on the returned channel,
// sleeping the configured pacing delay after each one so playback arrives at
// a continuous rate instead of a single burst. Cancelling ctx stops
// production; the cached session is untouched, and concurrent streams of the
// same id are independent. A repeated call replays from the first segment.
func (c *Cache) Stream(ctx context.Context, id string) (<-chan []byte, string, error) {
	session, err := c.Get(id)
	if err != nil {
		return nil, "", err
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		for _, seg := range session.Segments {
			select {
			case out <- seg.Data:
			case <-ctx.Done():
				return
			}
			if c.pacing > 0 {
				select {
				case <-time.After(c.pacing):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, session.ContentType, nil
}
