package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mlevans/coursepilot/embeddings"
)

// DefaultMaxResults caps the size of any search result set.
const DefaultMaxResults = 5

// Store holds embedded chunks and the course catalog. Search ranks chunks in
// memory by cosine distance; an optional SQLite backend persists everything
// across restarts. Safe for concurrent readers; ingestion takes the write lock.
type Store struct {
	embedder   embeddings.Embedder
	maxResults int

	mu           sync.RWMutex
	courses      map[string]Course
	titleVectors map[string][]float32
	chunks       []indexedChunk

	backend *sqliteBackend // nil for a pure in-memory store
}

type indexedChunk struct {
	Chunk
	vector []float32
}

// Option configures a Store.
type Option func(*Store)

// WithMaxResults overrides the maximum search result count.
func WithMaxResults(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// New creates an in-memory store.
func New(embedder embeddings.Embedder, opts ...Option) *Store {
	s := &Store{
		embedder:     embedder,
		maxResults:   DefaultMaxResults,
		courses:      make(map[string]Course),
		titleVectors: make(map[string][]float32),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a store backed by a SQLite database at path, loading any
// previously ingested courses and chunks into memory.
func Open(path string, embedder embeddings.Embedder, opts ...Option) (*Store, error) {
	backend, err := openBackend(path)
	if err != nil {
		return nil, err
	}

	s := New(embedder, opts...)
	s.backend = backend

	courses, titleVectors, chunks, err := backend.loadAll()
	if err != nil {
		backend.Close()
		return nil, err
	}
	for _, c := range courses {
		s.courses[c.Title] = c
	}
	s.titleVectors = titleVectors
	s.chunks = chunks

	return s, nil
}

// Close releases the backing database, if any.
func (s *Store) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

// AddCourse ingests a course with its content chunks. Every chunk must
// reference the course title and an existing lesson number. The course title
// is embedded for fuzzy resolution; chunk contents are embedded for search.
// Returns ErrCourseExists if the title is already in the catalog.
func (s *Store) AddCourse(ctx context.Context, course Course, chunks []Chunk) error {
	if course.Title == "" {
		return fmt.Errorf("course title is required")
	}

	s.mu.RLock()
	_, exists := s.courses[course.Title]
	s.mu.RUnlock()
	if exists {
		return fmt.Errorf("%w: %q", ErrCourseExists, course.Title)
	}

	for _, c := range chunks {
		if c.CourseTitle != course.Title {
			return fmt.Errorf("chunk %q references course %q, expected %q", c.ID, c.CourseTitle, course.Title)
		}
		if _, ok := course.Lesson(c.LessonNumber); !ok {
			return fmt.Errorf("chunk %q references unknown lesson %d", c.ID, c.LessonNumber)
		}
	}

	// Embed title and contents outside the lock; the embedder is a slow
	// network call and must not serialize concurrent readers.
	texts := make([]string, 0, len(chunks)+1)
	texts = append(texts, course.Title)
	for _, c := range chunks {
		texts = append(texts, c.Content)
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed course %q: %w", course.Title, err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embed course %q: got %d vectors for %d texts", course.Title, len(vectors), len(texts))
	}

	titleVector := vectors[0]
	indexed := make([]indexedChunk, len(chunks))
	for i, c := range chunks {
		indexed[i] = indexedChunk{Chunk: c, vector: vectors[i+1]}
	}

	if s.backend != nil {
		if err := s.backend.saveCourse(course, titleVector, indexed); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.courses[course.Title]; exists {
		return fmt.Errorf("%w: %q", ErrCourseExists, course.Title)
	}
	s.courses[course.Title] = course
	s.titleVectors[course.Title] = titleVector
	s.chunks = append(s.chunks, indexed...)

	return nil
}

// Search embeds the query, applies the exact-match filter, and returns up to
// limit chunks ordered by ascending cosine distance. A non-positive limit
// selects the configured maximum; results never exceed that maximum.
func (s *Store) Search(ctx context.Context, query string, filter Filter, limit int) ([]ScoredChunk, error) {
	if limit <= 0 || limit > s.maxResults {
		limit = s.maxResults
	}

	queryVector, err := embeddings.EmbedOne(ctx, s.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]ScoredChunk, 0, limit)
	for _, c := range s.chunks {
		if !filter.matches(c.Chunk) {
			continue
		}
		scored = append(scored, ScoredChunk{
			Chunk:    c.Chunk,
			Distance: cosineDistance(queryVector, c.vector),
		})
	}

	// Tie-break on chunk ID so equal distances rank deterministically.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Distance != scored[j].Distance {
			return scored[i].Distance < scored[j].Distance
		}
		return scored[i].ID < scored[j].ID
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// Course returns the catalog entry for a canonical title.
func (s *Store) Course(title string) (Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[title]
	return c, ok
}

// Courses returns all catalog entries ordered by title.
func (s *Store) Courses() []Course {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Course, 0, len(s.courses))
	for _, c := range s.courses {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	return result
}

// CourseTitles returns all canonical titles in lexical order.
func (s *Store) CourseTitles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	titles := make([]string, 0, len(s.courses))
	for title := range s.courses {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// CourseCount returns the number of ingested courses.
func (s *Store) CourseCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.courses)
}

// ChunkCount returns the number of indexed chunks.
func (s *Store) ChunkCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// MaxResults returns the configured result-set cap.
func (s *Store) MaxResults() int {
	return s.maxResults
}
