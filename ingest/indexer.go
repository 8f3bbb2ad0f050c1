package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mlevans/coursepilot/store"
)

// Indexer loads course documents into a content store.
type Indexer struct {
	store   *store.Store
	chunker Chunker
	logger  *slog.Logger
}

// NewIndexer creates an indexer writing into st. A zero chunker falls
// back to DefaultChunker and a nil logger discards output.
func NewIndexer(st *store.Store, chunker Chunker, logger *slog.Logger) *Indexer {
	if chunker.Size <= 0 {
		chunker = DefaultChunker
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Indexer{store: st, chunker: chunker, logger: logger}
}

// IndexFile parses and indexes a single course document. It returns
// store.ErrCourseExists when the course title is already indexed.
func (ix *Indexer) IndexFile(ctx context.Context, path string) (store.Course, int, error) {
	course, lessons, err := ParseDocument(path)
	if err != nil {
		return store.Course{}, 0, err
	}

	var chunks []store.Chunk
	for _, lesson := range lessons {
		pieces := ix.chunker.Chunk(lesson.Text)
		for pos, piece := range pieces {
			content := piece
			if pos == 0 {
				content = fmt.Sprintf("Course %s Lesson %d content: %s", course.Title, lesson.Number, piece)
			}
			chunks = append(chunks, store.Chunk{
				ID:           store.ChunkID(course.Title, lesson.Number, pos),
				CourseTitle:  course.Title,
				LessonNumber: lesson.Number,
				Content:      content,
			})
		}
	}
	if len(chunks) == 0 {
		return store.Course{}, 0, fmt.Errorf("no indexable content in %s", path)
	}

	if err := ix.store.AddCourse(ctx, course, chunks); err != nil {
		return store.Course{}, 0, err
	}
	ix.logger.Info("indexed course",
		"title", course.Title,
		"lessons", len(course.Lessons),
		"chunks", len(chunks))
	return course, len(chunks), nil
}

// IndexDirectory indexes every .txt document in dir, in name order.
// Courses whose titles are already present are skipped so the call is
// safe to repeat as new documents arrive. It returns the number of
// courses added and skipped.
func (ix *Indexer) IndexDirectory(ctx context.Context, dir string) (added, skipped int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("read course directory: %w", err)
	}

	existing := make(map[string]bool)
	for _, title := range ix.store.CourseTitles() {
		existing[strings.ToLower(title)] = true
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	for _, path := range paths {
		course, _, parseErr := ParseDocument(path)
		if parseErr != nil {
			ix.logger.Warn("skipping unparseable document", "path", path, "error", parseErr)
			skipped++
			continue
		}
		if existing[strings.ToLower(course.Title)] {
			ix.logger.Debug("course already indexed", "title", course.Title)
			skipped++
			continue
		}
		if _, _, err := ix.IndexFile(ctx, path); err != nil {
			return added, skipped, fmt.Errorf("index %s: %w", path, err)
		}
		existing[strings.ToLower(course.Title)] = true
		added++
	}
	return added, skipped, nil
}
