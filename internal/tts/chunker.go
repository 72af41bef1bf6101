package tts

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/swarsmriti/voice-core/internal/fault"
)

// Chunk is a bounded-length, sentence-aligned unit of reply text. Index is
// the chunk's position in the reply and carries through to the audio segment
// synthesized from it.
type Chunk struct {
	Index int
	Text  string
}

// SplitChunks splits text into chunks of at most maxChars characters without
// breaking sentences. Sentences end at `.`, `!` or `?` followed by
// whitespace. Consecutive sentences are greedily packed into a chunk while
// they fit; a single sentence longer than maxChars is emitted as its own
// oversized chunk rather than cut mid-word. Joining the chunks with single
// spaces reconstructs the input up to whitespace normalization.
func SplitChunks(text string, maxChars int) ([]Chunk, error) {
	if maxChars < 1 {
		return nil, fault.New(fault.KindInvalidInput, "split_chunks", "max chunk length must be >= 1")
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}

	var chunks []Chunk
	current := sentences[0]
	for _, sentence := range sentences[1:] {
		if utf8.RuneCountInString(current)+1+utf8.RuneCountInString(sentence) <= maxChars {
			current = current + " " + sentence
			continue
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Text: current})
		current = sentence
	}
	chunks = append(chunks, Chunk{Index: len(chunks), Text: current})
	return chunks, nil
}

func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		b.WriteRune(runes[i])
		if !isTerminator(runes[i]) || i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			sentences = append(sentences, s)
		}
		b.Reset()
		for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			i++
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
