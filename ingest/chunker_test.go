package ingest

import (
	"strings"
	"testing"
)

func TestChunkKeepsSentencesWhole(t *testing.T) {
	text := "First sentence here. Second sentence follows. Third one closes."
	chunks := Chunker{Size: 45, Overlap: 0}.Chunk(text)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d: %v", len(chunks), chunks)
	}
	for _, c := range chunks {
		if !strings.HasSuffix(c, ".") {
			t.Errorf("chunk should end on a sentence boundary: %q", c)
		}
	}
	joined := strings.Join(chunks, " ")
	for _, s := range []string{"First sentence here.", "Second sentence follows.", "Third one closes."} {
		if !strings.Contains(joined, s) {
			t.Errorf("missing sentence %q", s)
		}
	}
}

func TestChunkOverlapCarriesTrailingSentence(t *testing.T) {
	text := "Alpha beta gamma delta. Epsilon zeta eta theta. Iota kappa lambda mu."
	chunks := Chunker{Size: 50, Overlap: 25}.Chunk(text)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d: %v", len(chunks), chunks)
	}
	last := chunkLastSentence(chunks[0])
	if !strings.HasPrefix(chunks[1], last) {
		t.Errorf("second chunk should start with overlap %q, got %q", last, chunks[1])
	}
}

func chunkLastSentence(chunk string) string {
	i := strings.LastIndex(strings.TrimSuffix(chunk, "."), ". ")
	if i < 0 {
		return chunk
	}
	return chunk[i+2:]
}

func TestChunkSingleSmallText(t *testing.T) {
	chunks := Chunker{Size: 800, Overlap: 100}.Chunk("Just one short sentence.")
	if len(chunks) != 1 || chunks[0] != "Just one short sentence." {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestChunkEmptyText(t *testing.T) {
	if chunks := DefaultChunker.Chunk("   \n\t "); chunks != nil {
		t.Fatalf("expected nil for blank text, got %v", chunks)
	}
}

func TestChunkNormalizesWhitespace(t *testing.T) {
	chunks := DefaultChunker.Chunk("Spread  over\nlines.   And more.")
	if len(chunks) != 1 {
		t.Fatalf("chunks = %v", chunks)
	}
	if chunks[0] != "Spread over lines. And more." {
		t.Errorf("whitespace not normalized: %q", chunks[0])
	}
}

func TestChunkOversizedSentenceStillEmitted(t *testing.T) {
	long := strings.Repeat("word ", 50) + "end."
	chunks := Chunker{Size: 40, Overlap: 10}.Chunk("Short lead. " + long)
	found := false
	for _, c := range chunks {
		if strings.Contains(c, "end.") {
			found = true
		}
	}
	if !found {
		t.Fatal("oversized sentence was dropped")
	}
}
