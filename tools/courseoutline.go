// CourseOutline - structured course outlines with lessons, instructor and links.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mlevans/coursepilot/llm"
	"github.com/mlevans/coursepilot/store"
)

// CourseOutlineName is the tool name exposed to the model.
const CourseOutlineName = "get_course_outline"

// CourseOutline returns the outline of one fuzzily-named course, or a
// compact overview of every course in the catalog.
type CourseOutline struct {
	store    *store.Store
	resolver *store.Resolver
}

// NewCourseOutline creates the outline tool over a store and its resolver.
func NewCourseOutline(st *store.Store, resolver *store.Resolver) *CourseOutline {
	return &CourseOutline{store: st, resolver: resolver}
}

// Definition returns the tool spec exposed to the model.
func (t *CourseOutline) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        CourseOutlineName,
		Description: "Get structured course outline with lessons, instructor, and links",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"course_name": map[string]interface{}{
					"type":        "string",
					"description": "Course title to get outline for (partial matches work). Leave empty to get all courses.",
				},
			},
			"required": []string{},
		},
	}
}

type courseOutlineArgs struct {
	CourseName string `json:"course_name"`
}

// Execute renders the requested outline.
func (t *CourseOutline) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	var params courseOutlineArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return Result{}, fmt.Errorf("invalid outline arguments: %w", err)
		}
	}

	if t.store.CourseCount() == 0 {
		return Result{Output: "No courses available in the knowledge base."}, nil
	}

	if params.CourseName != "" {
		title, err := t.resolver.Resolve(ctx, params.CourseName)
		if errors.Is(err, store.ErrCourseNotFound) {
			return Result{Output: fmt.Sprintf("No course found matching '%s'.", params.CourseName)}, nil
		}
		if err != nil {
			return Result{}, fmt.Errorf("resolve course name: %w", err)
		}

		course, ok := t.store.Course(title)
		if !ok {
			return Result{Output: fmt.Sprintf("Course metadata not found for '%s'.", title)}, nil
		}
		return formatSingleCourse(course), nil
	}

	return formatAllCourses(t.store.Courses()), nil
}

func formatSingleCourse(course store.Course) Result {
	var lines []string

	lines = append(lines, fmt.Sprintf("## %s", course.Title))
	if course.Link != "" {
		lines = append(lines, fmt.Sprintf("**Course Link:** %s", course.Link))
	}
	if course.Instructor != "" {
		lines = append(lines, fmt.Sprintf("**Instructor:** %s", course.Instructor))
	}

	if len(course.Lessons) > 0 {
		lines = append(lines, "\n**Lessons:**")
		for _, lesson := range course.Lessons {
			if lesson.Link != "" {
				lines = append(lines, fmt.Sprintf("- Lesson %d: [%s](%s)", lesson.Number, lesson.Title, lesson.Link))
			} else {
				lines = append(lines, fmt.Sprintf("- Lesson %d: %s", lesson.Number, lesson.Title))
			}
		}
	} else {
		lines = append(lines, "\n*No lessons found for this course.*")
	}

	return Result{
		Output:  strings.Join(lines, "\n"),
		Sources: []string{course.Title},
	}
}

func formatAllCourses(courses []store.Course) Result {
	lines := []string{"# Available Courses\n"}
	var sources []string

	for _, course := range courses {
		lines = append(lines, fmt.Sprintf("## %s", course.Title))
		if course.Link != "" {
			lines = append(lines, fmt.Sprintf("**Link:** %s", course.Link))
		}
		if course.Instructor != "" {
			lines = append(lines, fmt.Sprintf("**Instructor:** %s", course.Instructor))
		}
		lines = append(lines, fmt.Sprintf("**Total Lessons:** %d", len(course.Lessons)))

		// Compact topic preview: first three lessons.
		if len(course.Lessons) > 0 {
			preview := course.Lessons
			if len(preview) > 3 {
				preview = preview[:3]
			}
			var topics []string
			for _, l := range preview {
				topics = append(topics, fmt.Sprintf("L%d: %s", l.Number, l.Title))
			}
			lines = append(lines, fmt.Sprintf("**Topics:** %s", strings.Join(topics, ", ")))
			if rest := len(course.Lessons) - 3; rest > 0 {
				lines = append(lines, fmt.Sprintf("*... and %d more lessons*", rest))
			}
		}

		lines = append(lines, "")
		sources = append(sources, course.Title)
	}

	return Result{
		Output:  strings.Join(lines, "\n"),
		Sources: sources,
	}
}

var _ Tool = (*CourseOutline)(nil)
