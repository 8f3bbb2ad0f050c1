package ingest

import (
	"regexp"
	"strings"
)

// Chunker splits transcript text into overlapping, sentence-aligned
// pieces. Size and Overlap are measured in characters; a sentence is
// never split across chunks.
type Chunker struct {
	Size    int
	Overlap int
}

// DefaultChunker matches the ingestion defaults used by the CLI.
var DefaultChunker = Chunker{Size: 800, Overlap: 100}

var sentenceEnd = regexp.MustCompile(`([.!?]+)\s+`)

// Chunk splits text into pieces of roughly c.Size characters. Adjacent
// chunks share trailing sentences up to c.Overlap characters so that
// context spanning a boundary is retrievable from either side.
func (c Chunker) Chunk(text string) []string {
	text = strings.TrimSpace(normalizeWhitespace(text))
	if text == "" {
		return nil
	}
	size := c.Size
	if size <= 0 {
		size = DefaultChunker.Size
	}

	sentences := splitSentences(text)
	var chunks []string
	var current []string
	currentLen := 0

	for _, s := range sentences {
		if currentLen > 0 && currentLen+1+len(s) > size {
			chunks = append(chunks, strings.Join(current, " "))
			current = tailByLength(current, c.Overlap)
			currentLen = joinedLength(current)
		}
		current = append(current, s)
		if currentLen == 0 {
			currentLen = len(s)
		} else {
			currentLen += 1 + len(s)
		}
	}
	if currentLen > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// splitSentences breaks text on sentence-ending punctuation, keeping
// the punctuation with the sentence it terminates.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringSubmatchIndex(text, -1) {
		end := loc[3] // end of the punctuation group
		s := strings.TrimSpace(text[start:end])
		if s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// tailByLength returns the trailing sentences whose combined length
// stays within limit characters.
func tailByLength(sentences []string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	total := 0
	for i := len(sentences) - 1; i >= 0; i-- {
		add := len(sentences[i])
		if total > 0 {
			add++
		}
		if total+add > limit {
			return append([]string(nil), sentences[i+1:]...)
		}
		total += add
	}
	return append([]string(nil), sentences...)
}

func joinedLength(sentences []string) int {
	if len(sentences) == 0 {
		return 0
	}
	n := len(sentences) - 1
	for _, s := range sentences {
		n += len(s)
	}
	return n
}

var whitespace = regexp.MustCompile(`\s+`)

func normalizeWhitespace(s string) string {
	return whitespace.ReplaceAllString(s, " ")
}
