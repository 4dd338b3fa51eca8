package chat

import "strings"

// IntentGuesser synthesizes a best-effort function call from the user's query
// when the assistant reply carried neither content nor function calls. It is
// pluggable so the keyword heuristic can be swapped or disabled without
// touching the normalizer.
type IntentGuesser interface {
	Guess(query string) (FunctionCall, bool)
}

// keywordGroup maps a capability to the query keywords that suggest it.
type keywordGroup struct {
	capability string
	keywords   []string
}

// KeywordGuesser guesses intent from fixed keyword groups. The first matching
// group wins and at most one call is ever synthesized.
type KeywordGuesser struct {
	groups []keywordGroup
}

// NewKeywordGuesser creates the default guesser covering the course,
// assignment and profile capabilities.
func NewKeywordGuesser() *KeywordGuesser {
	return &KeywordGuesser{
		groups: []keywordGroup{
			{capability: "getCourses", keywords: []string{"course", "class", "enrolled"}},
			{capability: "getAssignments", keywords: []string{"assignment", "homework", "due"}},
			{capability: "getProfile", keywords: []string{"profile", "account", "info"}},
		},
	}
}

func (g *KeywordGuesser) Guess(query string) (FunctionCall, bool) {
	lowered := strings.ToLower(query)
	for _, group := range g.groups {
		for _, kw := range group.keywords {
			if strings.Contains(lowered, kw) {
				return FunctionCall{Name: group.capability, Arguments: map[string]any{}}, true
			}
		}
	}
	return FunctionCall{}, false
}

// NopGuesser disables intent synthesis.
type NopGuesser struct{}

func (NopGuesser) Guess(string) (FunctionCall, bool) { return FunctionCall{}, false }
