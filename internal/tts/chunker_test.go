package tts

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/swarsmriti/voice-core/internal/fault"
)

func joinChunks(chunks []Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	return strings.Join(parts, " ")
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// sentence builds a sentence of exactly n characters, terminator included.
func sentence(t *testing.T, n int) string {
	t.Helper()
	if n < 2 {
		t.Fatalf("sentence length %d too short", n)
	}
	return strings.Repeat("a", n-1) + "."
}

func TestSplitChunksEmptyInput(t *testing.T) {
	chunks, err := SplitChunks("", 250)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}

func TestSplitChunksInvalidLimit(t *testing.T) {
	if _, err := SplitChunks("Hello there.", 0); !fault.IsKind(err, fault.KindInvalidInput) {
		t.Fatalf("expected invalid_input fault, got %v", err)
	}
}

func TestSplitChunksSingleSentence(t *testing.T) {
	chunks, err := SplitChunks("Hello there, how are you?", 250)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "Hello there, how are you?" {
		t.Fatalf("unexpected chunk text %q", chunks[0].Text)
	}
}

func TestSplitChunksOversizedSentenceUnsplit(t *testing.T) {
	long := sentence(t, 300)
	text := "Short one. " + long + " Another short."

	chunks, err := SplitChunks(text, 250)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[1].Text != long {
		t.Fatal("oversized sentence must pass through as its own chunk")
	}
}

func TestSplitChunksBound(t *testing.T) {
	text := "One two three. Four five! Six seven eight nine? Ten. " +
		"Eleven twelve thirteen fourteen. Fifteen."
	for _, limit := range []int{1, 10, 25, 80, 250} {
		chunks, err := SplitChunks(text, limit)
		if err != nil {
			t.Fatalf("limit %d: %v", limit, err)
		}
		for _, c := range chunks {
			if utf8.RuneCountInString(c.Text) > limit && len(splitSentences(c.Text)) > 1 {
				t.Fatalf("limit %d: multi-sentence chunk %q exceeds bound", limit, c.Text)
			}
		}
	}
}

func TestSplitChunksIdempotence(t *testing.T) {
	texts := []string{
		"Hello.  How are   you? I am fine!",
		"No terminator at all",
		"Trailing spaces end here.   ",
		"Ellipsis... then more. And done!",
	}
	for _, text := range texts {
		for _, limit := range []int{1, 5, 40, 250} {
			chunks, err := SplitChunks(text, limit)
			if err != nil {
				t.Fatalf("%q limit %d: %v", text, limit, err)
			}
			if got, want := joinChunks(chunks), normalizeWhitespace(text); got != want {
				t.Fatalf("%q limit %d: join %q != normalized %q", text, limit, got, want)
			}
		}
	}
}

func TestSplitChunksIndicesAscend(t *testing.T) {
	chunks, err := SplitChunks("A. B. C. D. E.", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("chunk %d carries index %d", i, c.Index)
		}
	}
}

// Three sentences totaling 400 characters against the default limit pack
// into exactly two chunks with the remainder in the shorter second chunk.
func TestSplitChunksFourHundredCharReply(t *testing.T) {
	s1 := sentence(t, 120)
	s2 := sentence(t, 120)
	s3 := sentence(t, 158)
	text := s1 + " " + s2 + " " + s3
	if utf8.RuneCountInString(text) != 400 {
		t.Fatalf("fixture text is %d chars, want 400", utf8.RuneCountInString(text))
	}

	chunks, err := SplitChunks(text, 250)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected exactly 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != s1+" "+s2 {
		t.Fatal("first chunk should pack the first two sentences")
	}
	if chunks[1].Text != s3 {
		t.Fatal("second chunk should carry the final sentence")
	}
	if utf8.RuneCountInString(chunks[1].Text) >= utf8.RuneCountInString(chunks[0].Text) {
		t.Fatal("second chunk should be shorter than the first")
	}
	if joinChunks(chunks) != text {
		t.Fatal("joined chunks must reconstruct the original sentences")
	}
}
