// Package ingest turns course transcript documents into catalog entries
// and searchable chunks.
//
// Documents follow a simple line-oriented format:
//
//	Course Title: Intro to X
//	Course Link: https://example.com/intro
//	Course Instructor: Ada Example
//
//	Lesson 0: Welcome
//	Lesson Link: https://example.com/intro/lesson0
//	<transcript text>
//
//	Lesson 1: Getting Started
//	...
package ingest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/mlevans/coursepilot/store"
)

var lessonHeader = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.+)$`)

// LessonText pairs a lesson with its raw transcript.
type LessonText struct {
	Number int
	Title  string
	Link   string
	Text   string
}

// ParseDocument reads a course transcript file and returns the course
// metadata plus the per-lesson transcript text. The course title falls
// back to the file name when the header is absent.
func ParseDocument(path string) (store.Course, []LessonText, error) {
	f, err := os.Open(path)
	if err != nil {
		return store.Course{}, nil, fmt.Errorf("open course document: %w", err)
	}
	defer f.Close()

	course := store.Course{
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}
	var lessons []LessonText
	var current *LessonText
	var body strings.Builder

	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.TrimSpace(body.String())
		lessons = append(lessons, *current)
		current = nil
		body.Reset()
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	inHeader := true
	for scanner.Scan() {
		line := scanner.Text()

		if m := lessonHeader.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			flush()
			inHeader = false
			number, _ := strconv.Atoi(m[1])
			current = &LessonText{Number: number, Title: strings.TrimSpace(m[2])}
			continue
		}

		if inHeader {
			switch {
			case strings.HasPrefix(line, "Course Title:"):
				course.Title = strings.TrimSpace(strings.TrimPrefix(line, "Course Title:"))
			case strings.HasPrefix(line, "Course Link:"):
				course.Link = strings.TrimSpace(strings.TrimPrefix(line, "Course Link:"))
			case strings.HasPrefix(line, "Course Instructor:"):
				course.Instructor = strings.TrimSpace(strings.TrimPrefix(line, "Course Instructor:"))
			}
			continue
		}

		if current != nil && body.Len() == 0 && strings.HasPrefix(line, "Lesson Link:") {
			current.Link = strings.TrimSpace(strings.TrimPrefix(line, "Lesson Link:"))
			continue
		}
		if current != nil {
			body.WriteString(line)
			body.WriteString("\n")
		}
	}
	flush()
	if err := scanner.Err(); err != nil {
		return store.Course{}, nil, fmt.Errorf("read course document: %w", err)
	}

	if len(lessons) == 0 {
		return store.Course{}, nil, fmt.Errorf("no lessons found in %s", path)
	}
	for _, l := range lessons {
		course.Lessons = append(course.Lessons, store.Lesson{
			Number: l.Number,
			Title:  l.Title,
			Link:   l.Link,
		})
	}
	return course, lessons, nil
}
