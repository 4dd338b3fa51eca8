package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FormatResults renders executed function results as a Markdown transcript.
// It is the fallback answer when the follow-up request returns no usable
// content, and mirrors what the platform's own views would display.
func FormatResults(results []FunctionResult) string {
	sections := []string{}
	for _, result := range results {
		if section := formatResult(result); section != "" {
			sections = append(sections, section)
		}
	}
	if len(sections) == 0 {
		return "I could not find anything for that request."
	}
	return strings.Join(sections, "\n\n")
}

func formatResult(result FunctionResult) string {
	if msg, ok := errorMarker(result.Result); ok {
		return fmt.Sprintf("Something went wrong running %s: %s", result.Name, msg)
	}
	switch result.Name {
	case "getCourses":
		return formatCourses(result.Result)
	case "getAssignments":
		return formatAssignments(result.Result)
	case "getProfile":
		return formatProfile(result.Result)
	default:
		return formatGeneric(result)
	}
}

func errorMarker(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	msg, ok := m["error"].(string)
	return msg, ok
}

func formatCourses(v any) string {
	items := extractList(v, "courses")
	if items == nil {
		return formatGeneric(FunctionResult{Name: "getCourses", Result: v})
	}
	if len(items) == 0 {
		return "You are not enrolled in any courses."
	}
	lines := []string{"Here are your courses:", ""}
	for _, item := range items {
		course, ok := item.(map[string]any)
		if !ok {
			continue
		}
		line := "- **" + stringField(course, "title") + "**"
		if code := stringField(course, "code"); code != "" {
			line += " (" + code + ")"
		}
		if instructor := stringField(course, "instructor"); instructor != "" {
			line += " — taught by " + instructor
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatAssignments(v any) string {
	items := extractList(v, "assignments")
	if items == nil {
		return formatGeneric(FunctionResult{Name: "getAssignments", Result: v})
	}
	if len(items) == 0 {
		return "You have no assignments right now."
	}
	lines := []string{"Here are your assignments:", ""}
	for _, item := range items {
		assignment, ok := item.(map[string]any)
		if !ok {
			continue
		}
		line := "- **" + stringField(assignment, "title") + "**"
		if course, ok := assignment["course"].(map[string]any); ok {
			if title := stringField(course, "title"); title != "" {
				line += " — " + title
			}
		}
		if due := stringField(assignment, "due_date"); due != "" {
			line += " (due " + localizeDate(due) + ")"
		}
		if status := stringField(assignment, "submission_status"); status != "" {
			line += " — " + status
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatProfile(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return formatGeneric(FunctionResult{Name: "getProfile", Result: v})
	}
	if profile, ok := m["profile"].(map[string]any); ok {
		m = profile
	}
	lines := []string{"Your profile:", ""}
	for _, key := range []string{"name", "email", "major", "year"} {
		if value := stringField(m, key); value != "" {
			label := strings.ToUpper(key[:1]) + key[1:]
			lines = append(lines, fmt.Sprintf("- %s: %s", label, value))
		}
	}
	if len(lines) == 2 {
		return formatGeneric(FunctionResult{Name: "getProfile", Result: v})
	}
	return strings.Join(lines, "\n")
}

func formatGeneric(result FunctionResult) string {
	b, err := json.MarshalIndent(result.Result, "", "  ")
	if err != nil {
		return ""
	}
	header := "Result"
	if result.Name != "" {
		header = "Result of " + result.Name
	}
	return header + ":\n\n```json\n" + string(b) + "\n```"
}

// extractList pulls the named list out of a result map, also accepting a
// bare top-level array. A nil return means the value had no recognizable
// list shape.
func extractList(v any, key string) []any {
	switch val := v.(type) {
	case []any:
		return val
	case map[string]any:
		if items, ok := val[key].([]any); ok {
			return items
		}
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// localizeDate renders an ISO date in a human-readable form, passing the raw
// value through when it cannot be parsed.
func localizeDate(raw string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("January 2, 2006")
		}
	}
	return raw
}
