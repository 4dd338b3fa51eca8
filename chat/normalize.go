package chat

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/lyceum-io/lyceum/client"
)

// Normalizer reduces whatever shape of assistant reply the backend produced
// into a CanonicalResponse. Every branch is defensive: malformed input
// degrades to the next branch and parsing never fails to the caller.
type Normalizer struct {
	guesser IntentGuesser
}

// NewNormalizer creates a normalizer. A nil guesser falls back to the default
// keyword guesser.
func NewNormalizer(guesser IntentGuesser) *Normalizer {
	if guesser == nil {
		guesser = NewKeywordGuesser()
	}
	return &Normalizer{guesser: guesser}
}

// Normalize reduces a raw reply to the canonical shape. query is the user
// text that produced the reply; it feeds the intent fallback when the reply
// carried neither content nor function calls.
func (n *Normalizer) Normalize(raw *client.RawChatResponse, query string) CanonicalResponse {
	out := CanonicalResponse{
		Content:         coerceContent(raw.Content),
		FunctionCalls:   normalizeCalls(raw.FunctionCalls),
		FunctionResults: normalizeResults(raw.FunctionResults),
	}

	// Empty reply: synthesize at most one zero-argument call from the query.
	if len(out.FunctionCalls) == 0 && strings.TrimSpace(out.Content) == "" {
		if call, ok := n.guesser.Guess(query); ok {
			out.FunctionCalls = append(out.FunctionCalls, call)
		}
	}

	if out.FunctionCalls == nil {
		out.FunctionCalls = []FunctionCall{}
	}
	if out.FunctionResults == nil {
		out.FunctionResults = []FunctionResult{}
	}
	return out
}

// coerceContent renders the content field as a string. Objects are
// JSON-encoded; nil becomes the empty string.
func coerceContent(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// normalizeCalls reduces the untyped function_calls field to canonical calls.
// Branches run strictly in order; each one only fires when the previous did
// not produce a usable value.
func normalizeCalls(value any) []FunctionCall {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		calls := []FunctionCall{}
		for _, item := range v {
			if call, ok := canonicalizeCall(item); ok {
				calls = append(calls, call)
			}
		}
		return calls
	case map[string]any:
		// Single non-array object yields a one-element sequence.
		if call, ok := canonicalizeCall(v); ok {
			return []FunctionCall{call}
		}
		return nil
	case string:
		return normalizeCallString(v)
	default:
		return []FunctionCall{wrapOpaque(v)}
	}
}

func normalizeCallString(s string) []FunctionCall {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	// (a) fenced code blocks with pseudo-invocations.
	if hasFencedBlock(s) {
		if calls := extractFencedCalls(s); len(calls) > 0 {
			return calls
		}
	}
	// (b) kwargs-style text carrying an explicit name.
	if kwargs, ok := parseKwargs(s); ok {
		if name, _ := kwargs["name"].(string); name != "" {
			delete(kwargs, "name")
			return []FunctionCall{{Name: name, Arguments: kwargs}}
		}
	}
	// (c) the whole field as JSON.
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err == nil {
		switch parsed.(type) {
		case map[string]any, []any:
			return normalizeCalls(parsed)
		}
	}
	// (d) opaque wrap.
	return []FunctionCall{wrapOpaque(s)}
}

// wrapOpaque keeps an unrecognizable value visible instead of dropping it.
func wrapOpaque(v any) FunctionCall {
	return FunctionCall{Name: "unknown", Arguments: map[string]any{"raw_response": v}}
}

// canonicalizeCall reduces one element to {name, arguments}, accepting both
// the flat shape and the nested {type: "function", function: {...}} envelope.
// Calls without a usable name are discarded.
func canonicalizeCall(v any) (FunctionCall, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return FunctionCall{}, false
	}
	if t, _ := m["type"].(string); t == "function" {
		if fn, ok := m["function"].(map[string]any); ok {
			m = fn
		}
	}
	name, _ := m["name"].(string)
	if name == "" {
		return FunctionCall{}, false
	}
	return FunctionCall{Name: name, Arguments: normalizeArguments(m["arguments"])}, true
}

func normalizeArguments(v any) map[string]any {
	switch args := v.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return args
	case string:
		return parseArguments(args)
	default:
		return map[string]any{}
	}
}

// parseArguments turns an argument string into a mapping: JSON object first,
// kwargs text second, empty mapping last.
func parseArguments(s string) map[string]any {
	s = strings.TrimSpace(s)
	if s == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err == nil {
		return m
	}
	if kwargs, ok := parseKwargs(s); ok {
		return kwargs
	}
	return map[string]any{}
}

// parseKwargs parses `key=value, key2=value2` text. Each value is
// JSON-decoded when possible and falls back to a quote-stripped string.
func parseKwargs(s string) (map[string]any, bool) {
	parts := splitTopLevel(s, ',')
	kwargs := map[string]any{}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		eq := strings.Index(part, "=")
		if eq <= 0 {
			return nil, false
		}
		key := strings.TrimSpace(part[:eq])
		raw := strings.TrimSpace(part[eq+1:])
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err == nil {
			kwargs[key] = value
		} else {
			kwargs[key] = strings.Trim(raw, `'"`)
		}
	}
	if len(kwargs) == 0 {
		return nil, false
	}
	return kwargs, true
}

// splitTopLevel splits on sep outside of quotes, brackets and braces so that
// values like lists survive the kwargs split.
func splitTopLevel(s string, sep rune) []string {
	parts := []string{}
	depth := 0
	var quote rune
	start := 0
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '(' || r == '[' || r == '{':
			depth++
		case r == ')' || r == ']' || r == '}':
			depth--
		case r == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

var (
	fencedBlockRegex = regexp.MustCompile("(?s)```(?:tool[-_]?code|python|json)\\s*(.*?)```")
	// Innermost invocations only, so wrappers like print(getCourses()) yield
	// the inner call rather than a truncated outer one.
	invocationRegex = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*\(([^()]*)\)`)
)

// Generic builtin-sounding names that show up in pseudo-code blocks but are
// never backend capabilities.
var builtinDenylist = map[string]struct{}{
	"print": {}, "str": {}, "int": {}, "float": {}, "list": {},
	"dict": {}, "set": {}, "tuple": {}, "len": {},
}

func hasFencedBlock(s string) bool {
	return strings.Contains(s, "```")
}

// extractFencedCalls pulls `name(args)` invocations out of fenced code blocks.
func extractFencedCalls(s string) []FunctionCall {
	calls := []FunctionCall{}
	for _, block := range fencedBlockRegex.FindAllStringSubmatch(s, -1) {
		for _, inv := range invocationRegex.FindAllStringSubmatch(block[1], -1) {
			name := inv[1]
			if _, denied := builtinDenylist[name]; denied {
				continue
			}
			calls = append(calls, FunctionCall{Name: name, Arguments: parseArguments(inv[2])})
		}
	}
	return calls
}

// normalizeResults reduces the untyped function_results field to canonical
// {name, result} records, including the nested-envelope variant.
func normalizeResults(value any) []FunctionResult {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		results := []FunctionResult{}
		for _, item := range v {
			results = append(results, canonicalizeResult(item))
		}
		return results
	case map[string]any:
		return []FunctionResult{canonicalizeResult(v)}
	case string:
		var parsed any
		if err := json.Unmarshal([]byte(v), &parsed); err == nil {
			switch parsed.(type) {
			case map[string]any, []any:
				return normalizeResults(parsed)
			}
		}
		return []FunctionResult{{Result: v}}
	default:
		return []FunctionResult{{Result: v}}
	}
}

func canonicalizeResult(v any) FunctionResult {
	m, ok := v.(map[string]any)
	if !ok {
		return FunctionResult{Result: v}
	}
	if t, _ := m["type"].(string); t == "function" {
		if fn, ok := m["function"].(map[string]any); ok {
			m = fn
		}
	}
	name, _ := m["name"].(string)
	if result, ok := m["result"]; ok {
		return FunctionResult{Name: name, Result: result}
	}
	return FunctionResult{Name: name, Result: m}
}
