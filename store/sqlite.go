// SQLite persistence for the course catalog and embedded chunks.
//
// Information Hiding:
// - Schema and vector encoding encapsulated here
// - Thread-safe via sql.DB's built-in connection pooling

package store

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
)

type sqliteBackend struct {
	db *sql.DB
}

// openBackend opens or creates the database at path, creating parent
// directories as needed.
func openBackend(path string) (*sqliteBackend, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: create database directory: %v", ErrUnavailable, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", ErrUnavailable, err)
	}

	backend := &sqliteBackend{db: db}
	if err := backend.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: initialize schema: %v", ErrUnavailable, err)
	}

	return backend, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}

func (b *sqliteBackend) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS courses (
			title TEXT PRIMARY KEY,
			link TEXT NOT NULL DEFAULT '',
			instructor TEXT NOT NULL DEFAULT '',
			title_vector BLOB NOT NULL
		);

		CREATE TABLE IF NOT EXISTS lessons (
			course_title TEXT NOT NULL,
			number INTEGER NOT NULL,
			title TEXT NOT NULL,
			link TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (course_title, number),
			FOREIGN KEY (course_title) REFERENCES courses(title) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			course_title TEXT NOT NULL,
			lesson_number INTEGER NOT NULL,
			content TEXT NOT NULL,
			vector BLOB NOT NULL,
			FOREIGN KEY (course_title) REFERENCES courses(title) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_chunks_course
		ON chunks(course_title, lesson_number);
	`
	_, err := b.db.Exec(schema)
	return err
}

// saveCourse writes a course, its lessons, and its embedded chunks in one
// transaction.
func (b *sqliteBackend) saveCourse(course Course, titleVector []float32, chunks []indexedChunk) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO courses (title, link, instructor, title_vector) VALUES (?, ?, ?, ?)`,
		course.Title, course.Link, course.Instructor, encodeVector(titleVector),
	)
	if err != nil {
		// A concurrent AddCourse may win the insert race; a title
		// constraint violation is a duplicate, not an outage.
		if isConstraintViolation(err) {
			return fmt.Errorf("%w: %q", ErrCourseExists, course.Title)
		}
		return fmt.Errorf("%w: insert course: %v", ErrUnavailable, err)
	}

	for _, lesson := range course.Lessons {
		_, err = tx.Exec(
			`INSERT INTO lessons (course_title, number, title, link) VALUES (?, ?, ?, ?)`,
			course.Title, lesson.Number, lesson.Title, lesson.Link,
		)
		if err != nil {
			return fmt.Errorf("%w: insert lesson: %v", ErrUnavailable, err)
		}
	}

	for _, chunk := range chunks {
		_, err = tx.Exec(
			`INSERT INTO chunks (id, course_title, lesson_number, content, vector) VALUES (?, ?, ?, ?, ?)`,
			chunk.ID, chunk.CourseTitle, chunk.LessonNumber, chunk.Content, encodeVector(chunk.vector),
		)
		if err != nil {
			return fmt.Errorf("%w: insert chunk: %v", ErrUnavailable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrUnavailable, err)
	}
	return nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

// loadAll reads the entire catalog and chunk index into memory.
func (b *sqliteBackend) loadAll() ([]Course, map[string][]float32, []indexedChunk, error) {
	courses := make(map[string]*Course)
	titleVectors := make(map[string][]float32)

	rows, err := b.db.Query(`SELECT title, link, instructor, title_vector FROM courses`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: load courses: %v", ErrUnavailable, err)
	}
	for rows.Next() {
		var c Course
		var vec []byte
		if err := rows.Scan(&c.Title, &c.Link, &c.Instructor, &vec); err != nil {
			rows.Close()
			return nil, nil, nil, fmt.Errorf("%w: scan course: %v", ErrUnavailable, err)
		}
		courses[c.Title] = &c
		titleVectors[c.Title] = decodeVector(vec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, nil, nil, fmt.Errorf("%w: load courses: %v", ErrUnavailable, err)
	}
	rows.Close()

	rows, err = b.db.Query(`SELECT course_title, number, title, link FROM lessons ORDER BY course_title, number`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: load lessons: %v", ErrUnavailable, err)
	}
	for rows.Next() {
		var courseTitle string
		var l Lesson
		if err := rows.Scan(&courseTitle, &l.Number, &l.Title, &l.Link); err != nil {
			rows.Close()
			return nil, nil, nil, fmt.Errorf("%w: scan lesson: %v", ErrUnavailable, err)
		}
		if c, ok := courses[courseTitle]; ok {
			c.Lessons = append(c.Lessons, l)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, nil, nil, fmt.Errorf("%w: load lessons: %v", ErrUnavailable, err)
	}
	rows.Close()

	var chunks []indexedChunk
	rows, err = b.db.Query(`SELECT id, course_title, lesson_number, content, vector FROM chunks`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: load chunks: %v", ErrUnavailable, err)
	}
	for rows.Next() {
		var c indexedChunk
		var vec []byte
		if err := rows.Scan(&c.ID, &c.CourseTitle, &c.LessonNumber, &c.Content, &vec); err != nil {
			rows.Close()
			return nil, nil, nil, fmt.Errorf("%w: scan chunk: %v", ErrUnavailable, err)
		}
		c.vector = decodeVector(vec)
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, nil, nil, fmt.Errorf("%w: load chunks: %v", ErrUnavailable, err)
	}
	rows.Close()

	result := make([]Course, 0, len(courses))
	for _, c := range courses {
		result = append(result, *c)
	}
	return result, titleVectors, chunks, nil
}

// Vectors are stored as little-endian float32 blobs.

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
