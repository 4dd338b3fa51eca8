package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatResults(t *testing.T) {
	t.Run("assignments with course and localized due date", func(t *testing.T) {
		out := FormatResults([]FunctionResult{{
			Name: "getAssignments",
			Result: map[string]any{
				"assignments": []any{
					map[string]any{
						"title":             "HW1",
						"course":            map[string]any{"title": "CS101"},
						"due_date":          "2024-01-01",
						"submission_status": "pending",
					},
				},
			},
		}})
		assert.Contains(t, out, "- **HW1** — CS101 (due January 1, 2024) — pending")
	})

	t.Run("bare array accepted", func(t *testing.T) {
		out := FormatResults([]FunctionResult{{
			Name:   "getCourses",
			Result: []any{map[string]any{"title": "CS101", "code": "CS101", "instructor": "Dr. Reyes"}},
		}})
		assert.Contains(t, out, "- **CS101** (CS101) — taught by Dr. Reyes")
	})

	t.Run("empty course list", func(t *testing.T) {
		out := FormatResults([]FunctionResult{{
			Name:   "getCourses",
			Result: map[string]any{"courses": []any{}},
		}})
		assert.Equal(t, "You are not enrolled in any courses.", out)
	})

	t.Run("profile fields", func(t *testing.T) {
		out := FormatResults([]FunctionResult{{
			Name: "getProfile",
			Result: map[string]any{"profile": map[string]any{
				"name":  "Jordan Lee",
				"email": "jordan.lee@example.edu",
				"major": "Computer Science",
			}},
		}})
		assert.Contains(t, out, "- Name: Jordan Lee")
		assert.Contains(t, out, "- Major: Computer Science")
	})

	t.Run("error marker", func(t *testing.T) {
		out := FormatResults([]FunctionResult{{
			Name:   "getCourses",
			Result: map[string]any{"error": "upstream timed out"},
		}})
		assert.Equal(t, "Something went wrong running getCourses: upstream timed out", out)
	})

	t.Run("unknown function falls back to JSON block", func(t *testing.T) {
		out := FormatResults([]FunctionResult{{
			Name:   "getSchedule",
			Result: map[string]any{"slots": float64(3)},
		}})
		assert.Contains(t, out, "Result of getSchedule:")
		assert.Contains(t, out, "```json")
	})

	t.Run("nothing renderable", func(t *testing.T) {
		assert.Equal(t, "I could not find anything for that request.", FormatResults(nil))
	})

	t.Run("multiple results joined by blank line", func(t *testing.T) {
		out := FormatResults([]FunctionResult{
			{Name: "getCourses", Result: map[string]any{"courses": []any{}}},
			{Name: "getAssignments", Result: map[string]any{"assignments": []any{}}},
		})
		assert.Equal(t, "You are not enrolled in any courses.\n\nYou have no assignments right now.", out)
	})
}

func TestLocalizeDate(t *testing.T) {
	assert.Equal(t, "January 1, 2024", localizeDate("2024-01-01"))
	assert.Equal(t, "March 15, 2024", localizeDate("2024-03-15T08:30:00Z"))
	assert.Equal(t, "next week", localizeDate("next week"))
}
