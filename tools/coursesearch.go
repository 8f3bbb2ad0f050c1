// CourseSearch - semantic search over course content with smart course name
// matching and lesson filtering.

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

// CourseSearchName is the tool name exposed to the model.
const CourseSearchName = "search_course_content"

// CourseSearch searches course content. A fuzzy course name is resolved to a
// canonical title before filtering; an unresolved name degrades to a
// "no matching course" message rather than a handler failure, so the model
// can still answer the turn.
type CourseSearch struct {
	store    *store.Store
	resolver *store.Resolver
}

// NewCourseSearch creates the search tool over a store and its resolver.
func NewCourseSearch(st *store.Store, resolver *store.Resolver) *CourseSearch {
	return &CourseSearch{store: st, resolver: resolver}
}

// Definition returns the tool spec exposed to the model.
func (t *CourseSearch) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        CourseSearchName,
		Description: "Search course materials with smart course name matching and lesson filtering",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "What to search for in the course content",
				},
				"course_name": map[string]interface{}{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": map[string]interface{}{
					"type":        "integer",
					"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			"required": []string{"query"},
		},
	}
}

type courseSearchArgs struct {
	Query        string `json:"query"`
	CourseName   string `json:"course_name"`
	LessonNumber *int   `json:"lesson_number"`
}

// Execute runs the search and formats results with course/lesson headers.
func (t *CourseSearch) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	var params courseSearchArgs
	if err := json.Unmarshal(args, &params); err != nil {
		return Result{}, fmt.Errorf("invalid search arguments: %w", err)
	}
	if strings.TrimSpace(params.Query) == "" {
		return Result{}, fmt.Errorf("search query is required")
	}

	filter := store.Filter{LessonNumber: params.LessonNumber}
	if params.CourseName != "" {
		title, err := t.resolver.Resolve(ctx, params.CourseName)
		if errors.Is(err, store.ErrCourseNotFound) {
			return Result{Output: fmt.Sprintf("No course found matching '%s'.", params.CourseName)}, nil
		}
		if err != nil {
			return Result{}, fmt.Errorf("resolve course name: %w", err)
		}
		filter.CourseTitle = title
	}

	results, err := t.store.Search(ctx, params.Query, filter, 0)
	if err != nil {
		return Result{}, fmt.Errorf("search course content: %w", err)
	}

	if len(results) == 0 {
		return Result{Output: emptyResultMessage(filter)}, nil
	}

	return formatSearchResults(results), nil
}

// emptyResultMessage describes an empty result set, naming any active
// filters. Never an empty string.
func emptyResultMessage(filter store.Filter) string {
	var b strings.Builder
	b.WriteString("No relevant content found")
	if filter.CourseTitle != "" {
		fmt.Fprintf(&b, " in course '%s'", filter.CourseTitle)
	}
	if filter.LessonNumber != nil {
		fmt.Fprintf(&b, " in lesson %d", *filter.LessonNumber)
	}
	b.WriteString(".")
	return b.String()
}

// formatSearchResults renders each chunk under a [Course - Lesson N] header
// and collects the header labels as source attributions.
func formatSearchResults(results []store.ScoredChunk) Result {
	var blocks []string
	var sources []string
	seen := make(map[string]bool)

	for _, r := range results {
		label := r.SourceLabel()
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", label, r.Content))
		if !seen[label] {
			seen[label] = true
			sources = append(sources, label)
		}
	}

	return Result{
		Output:  strings.Join(blocks, "\n\n"),
		Sources: sources,
	}
}

var _ Tool = (*CourseSearch)(nil)
