package ingest

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mlevans/coursepilot/store"
)

// freqEmbedder maps text to a letter-frequency histogram so indexing
// tests run without a real embedding service.
type freqEmbedder struct{}

func (freqEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		var v [26]float32
		for _, r := range strings.ToLower(text) {
			if r >= 'a' && r <= 'z' {
				v[r-'a']++
			}
		}
		var norm float32
		for _, x := range v {
			norm += x * x
		}
		if norm > 0 {
			scale := float32(1 / math.Sqrt(float64(norm)))
			for j := range v {
				v[j] *= scale
			}
		}
		vectors[i] = v[:]
	}
	return vectors, nil
}

func TestIndexFile(t *testing.T) {
	st := store.New(freqEmbedder{})
	ix := NewIndexer(st, Chunker{Size: 200, Overlap: 20}, nil)
	path := writeDocument(t, "intro.txt", sampleDocument)

	course, chunks, err := ix.IndexFile(context.Background(), path)
	if err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	if course.Title != "Intro to X" {
		t.Errorf("title = %q", course.Title)
	}
	if chunks == 0 {
		t.Fatal("no chunks indexed")
	}
	if got := st.CourseCount(); got != 1 {
		t.Errorf("course count = %d, want 1", got)
	}

	results, err := st.Search(context.Background(), "loops and conditionals", store.Filter{}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("indexed content not searchable")
	}
	if !strings.Contains(results[0].Content, "Course Intro to X Lesson") {
		t.Errorf("first chunk of a lesson should carry course context, got %q", results[0].Content)
	}
}

func TestIndexFileDuplicateCourse(t *testing.T) {
	st := store.New(freqEmbedder{})
	ix := NewIndexer(st, DefaultChunker, nil)
	path := writeDocument(t, "intro.txt", sampleDocument)

	if _, _, err := ix.IndexFile(context.Background(), path); err != nil {
		t.Fatalf("first IndexFile: %v", err)
	}
	_, _, err := ix.IndexFile(context.Background(), path)
	if !errors.Is(err, store.ErrCourseExists) {
		t.Fatalf("err = %v, want ErrCourseExists", err)
	}
}

func TestIndexDirectorySkipsExistingAndNonText(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("a_intro.txt", sampleDocument)
	write("b_other.txt", "Course Title: Advanced Y\nLesson 0: Start\nDeep content here.\n")
	write("notes.md", "not a course document")

	st := store.New(freqEmbedder{})
	ix := NewIndexer(st, DefaultChunker, nil)

	added, skipped, err := ix.IndexDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("IndexDirectory: %v", err)
	}
	if added != 2 || skipped != 0 {
		t.Fatalf("added=%d skipped=%d, want 2/0", added, skipped)
	}

	// A second pass sees both titles already indexed.
	added, skipped, err = ix.IndexDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("IndexDirectory: %v", err)
	}
	if added != 0 || skipped != 2 {
		t.Fatalf("added=%d skipped=%d, want 0/2", added, skipped)
	}
}

func TestIndexDirectorySkipsUnparseable(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.txt"), []byte("no lessons at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	st := store.New(freqEmbedder{})
	ix := NewIndexer(st, DefaultChunker, nil)

	added, skipped, err := ix.IndexDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("IndexDirectory: %v", err)
	}
	if added != 0 || skipped != 1 {
		t.Fatalf("added=%d skipped=%d, want 0/1", added, skipped)
	}
}

func TestIndexDirectoryMissing(t *testing.T) {
	st := store.New(freqEmbedder{})
	ix := NewIndexer(st, DefaultChunker, nil)
	if _, _, err := ix.IndexDirectory(context.Background(), filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
