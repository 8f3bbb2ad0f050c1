// Package store provides the embedded course-content store: it persists
// embedded chunks with their course/lesson metadata, answers nearest-neighbor
// queries with exact metadata filters, and resolves fuzzy course names
// against the catalog.
//
// Information Hiding:
// - Vector layout and similarity ranking hidden behind Search
// - SQLite persistence hidden behind New/Open
// - Title-embedding bookkeeping hidden behind the Resolver
package store

import (
	"errors"
	"fmt"
	"strings"
)

// Store-level errors.
var (
	// ErrCourseNotFound indicates a course name could not be resolved
	// against the catalog. Callers recover by degrading to a
	// "no matching course" result rather than aborting.
	ErrCourseNotFound = errors.New("no matching course found")

	// ErrCourseExists indicates an attempt to re-ingest a course title
	// that is already in the catalog. Courses are immutable once ingested.
	ErrCourseExists = errors.New("course already exists")

	// ErrUnavailable indicates the backing database could not be reached.
	// Fatal for the current query; the in-memory catalog is untouched.
	ErrUnavailable = errors.New("content store unavailable")
)

// Course is an ingested course. The canonical title is the unique identifier
// and the sole join key between name resolution and content queries.
type Course struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []Lesson
}

// Lesson is one lesson of a course. Numbers are unique within a course.
type Lesson struct {
	Number int
	Title  string
	Link   string
}

// Lesson returns the lesson with the given number, if present.
func (c Course) Lesson(number int) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.Number == number {
			return l, true
		}
	}
	return Lesson{}, false
}

// Chunk is a contiguous span of lesson text with denormalized provenance.
// Chunks are never mutated after creation.
type Chunk struct {
	ID           string
	CourseTitle  string
	LessonNumber int
	Content      string
}

// SourceLabel returns the human-readable attribution label for this chunk.
func (c Chunk) SourceLabel() string {
	return fmt.Sprintf("%s - Lesson %d", c.CourseTitle, c.LessonNumber)
}

// ChunkID derives the stable chunk identifier from course, lesson and
// position. Re-ingesting the same span yields the same ID.
func ChunkID(courseTitle string, lessonNumber, position int) string {
	return fmt.Sprintf("%s-%d-%d", slugify(courseTitle), lessonNumber, position)
}

// Filter is an exact-match metadata filter applied before ranking.
type Filter struct {
	CourseTitle  string // canonical title; empty matches any course
	LessonNumber *int   // exact lesson number; nil matches any lesson
}

func (f Filter) matches(c Chunk) bool {
	if f.CourseTitle != "" && c.CourseTitle != f.CourseTitle {
		return false
	}
	if f.LessonNumber != nil && c.LessonNumber != *f.LessonNumber {
		return false
	}
	return true
}

// ScoredChunk pairs a chunk with its relevance distance.
// Lower distance means more relevant.
type ScoredChunk struct {
	Chunk
	Distance float64
}

// slugify lowercases a title and replaces runs of non-alphanumerics with a
// single dash, producing a stable identifier component.
func slugify(s string) string {
	var b strings.Builder
	lastDash := true // suppress leading dash
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
