package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyceum-io/lyceum/client"
)

func TestNormalize_CanonicalArray(t *testing.T) {
	n := NewNormalizer(nil)
	out := n.Normalize(&client.RawChatResponse{
		Content: "Working on it.",
		FunctionCalls: []any{
			map[string]any{"name": "getAssignments", "arguments": map[string]any{}},
		},
	}, "what's due?")

	assert.Equal(t, "Working on it.", out.Content)
	require.Len(t, out.FunctionCalls, 1)
	assert.Equal(t, "getAssignments", out.FunctionCalls[0].Name)
	assert.Empty(t, out.FunctionCalls[0].Arguments)
}

func TestNormalize_SingleObjectBecomesOneElementList(t *testing.T) {
	n := NewNormalizer(nil)
	out := n.Normalize(&client.RawChatResponse{
		FunctionCalls: map[string]any{"name": "getCourses", "arguments": map[string]any{"limit": float64(5)}},
	}, "")

	require.Len(t, out.FunctionCalls, 1)
	assert.Equal(t, "getCourses", out.FunctionCalls[0].Name)
	assert.Equal(t, map[string]any{"limit": float64(5)}, out.FunctionCalls[0].Arguments)
}

func TestNormalize_NestedFunctionEnvelope(t *testing.T) {
	n := NewNormalizer(nil)
	out := n.Normalize(&client.RawChatResponse{
		FunctionCalls: []any{
			map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":      "f",
					"arguments": map[string]any{"a": float64(1)},
				},
			},
		},
	}, "")

	require.Len(t, out.FunctionCalls, 1)
	assert.Equal(t, "f", out.FunctionCalls[0].Name)
	assert.Equal(t, map[string]any{"a": float64(1)}, out.FunctionCalls[0].Arguments)
}

func TestNormalize_DiscardsNamelessCalls(t *testing.T) {
	n := NewNormalizer(nil)
	out := n.Normalize(&client.RawChatResponse{
		Content: "hi",
		FunctionCalls: []any{
			map[string]any{"arguments": map[string]any{"a": float64(1)}},
			map[string]any{"name": "", "arguments": map[string]any{}},
			map[string]any{"name": "keepMe"},
		},
	}, "")

	require.Len(t, out.FunctionCalls, 1)
	assert.Equal(t, "keepMe", out.FunctionCalls[0].Name)
}

func TestNormalize_IntentFallback(t *testing.T) {
	n := NewNormalizer(nil)

	t.Run("courses keyword", func(t *testing.T) {
		out := n.Normalize(&client.RawChatResponse{Content: ""}, "show me my courses")
		require.Len(t, out.FunctionCalls, 1)
		assert.Equal(t, "getCourses", out.FunctionCalls[0].Name)
		assert.Empty(t, out.FunctionCalls[0].Arguments)
	})

	t.Run("first matching group wins", func(t *testing.T) {
		out := n.Normalize(&client.RawChatResponse{}, "class homework info")
		require.Len(t, out.FunctionCalls, 1)
		assert.Equal(t, "getCourses", out.FunctionCalls[0].Name)
	})

	t.Run("no synthesis when content present", func(t *testing.T) {
		out := n.Normalize(&client.RawChatResponse{Content: "Here you go."}, "my courses")
		assert.Empty(t, out.FunctionCalls)
	})

	t.Run("no synthesis when calls present", func(t *testing.T) {
		out := n.Normalize(&client.RawChatResponse{
			FunctionCalls: []any{map[string]any{"name": "getProfile"}},
		}, "my courses")
		require.Len(t, out.FunctionCalls, 1)
		assert.Equal(t, "getProfile", out.FunctionCalls[0].Name)
	})

	t.Run("nop guesser disables synthesis", func(t *testing.T) {
		out := NewNormalizer(NopGuesser{}).Normalize(&client.RawChatResponse{}, "my courses")
		assert.Empty(t, out.FunctionCalls)
	})
}

func TestNormalize_FencedCodeExtraction(t *testing.T) {
	n := NewNormalizer(NopGuesser{})
	out := n.Normalize(&client.RawChatResponse{
		FunctionCalls: "```tool_code\nprint(getAssignments(status='pending'))\n```",
	}, "")

	require.Len(t, out.FunctionCalls, 1)
	assert.Equal(t, "getAssignments", out.FunctionCalls[0].Name)
	assert.Equal(t, map[string]any{"status": "pending"}, out.FunctionCalls[0].Arguments)
}

func TestNormalize_StringFieldAsJSON(t *testing.T) {
	n := NewNormalizer(NopGuesser{})
	out := n.Normalize(&client.RawChatResponse{
		FunctionCalls: `[{"name": "getCourses", "arguments": {}}]`,
	}, "")

	require.Len(t, out.FunctionCalls, 1)
	assert.Equal(t, "getCourses", out.FunctionCalls[0].Name)
}

func TestNormalize_OpaqueWrap(t *testing.T) {
	n := NewNormalizer(NopGuesser{})
	out := n.Normalize(&client.RawChatResponse{
		FunctionCalls: "complete gibberish",
	}, "")

	require.Len(t, out.FunctionCalls, 1)
	assert.Equal(t, "unknown", out.FunctionCalls[0].Name)
	assert.Equal(t, "complete gibberish", out.FunctionCalls[0].Arguments["raw_response"])
}

func TestNormalize_ContentCoercion(t *testing.T) {
	n := NewNormalizer(NopGuesser{})

	t.Run("object content is JSON-encoded", func(t *testing.T) {
		out := n.Normalize(&client.RawChatResponse{Content: map[string]any{"text": "hi"}}, "")
		assert.JSONEq(t, `{"text": "hi"}`, out.Content)
	})

	t.Run("nil content becomes empty string", func(t *testing.T) {
		out := n.Normalize(&client.RawChatResponse{}, "")
		assert.Equal(t, "", out.Content)
	})
}

func TestNormalize_Results(t *testing.T) {
	n := NewNormalizer(NopGuesser{})

	t.Run("flat and nested variants", func(t *testing.T) {
		out := n.Normalize(&client.RawChatResponse{
			Content: "done",
			FunctionResults: []any{
				map[string]any{"name": "getCourses", "result": map[string]any{"courses": []any{}}},
				map[string]any{
					"type":     "function",
					"function": map[string]any{"name": "getProfile", "result": "ok"},
				},
			},
		}, "")

		require.Len(t, out.FunctionResults, 2)
		assert.Equal(t, "getCourses", out.FunctionResults[0].Name)
		assert.Equal(t, "getProfile", out.FunctionResults[1].Name)
		assert.Equal(t, "ok", out.FunctionResults[1].Result)
	})

	t.Run("single object becomes one-element list", func(t *testing.T) {
		out := n.Normalize(&client.RawChatResponse{
			Content:         "done",
			FunctionResults: map[string]any{"name": "f", "result": float64(3)},
		}, "")
		require.Len(t, out.FunctionResults, 1)
		assert.Equal(t, float64(3), out.FunctionResults[0].Result)
	})
}

func TestParseKwargs(t *testing.T) {
	t.Run("numbers and quoted strings", func(t *testing.T) {
		kwargs, ok := parseKwargs("a='x', b=2")
		require.True(t, ok)
		assert.Equal(t, map[string]any{"a": "x", "b": float64(2)}, kwargs)
	})

	t.Run("json values survive", func(t *testing.T) {
		kwargs, ok := parseKwargs(`ids=[1, 2], active=true`)
		require.True(t, ok)
		assert.Equal(t, []any{float64(1), float64(2)}, kwargs["ids"])
		assert.Equal(t, true, kwargs["active"])
	})

	t.Run("not kwargs", func(t *testing.T) {
		_, ok := parseKwargs("just a sentence, nothing else")
		assert.False(t, ok)
	})
}

func TestExtractFencedCalls_SkipsBuiltins(t *testing.T) {
	calls := extractFencedCalls("```python\nprint(len(str(getCourses())))\n```")
	require.Len(t, calls, 1)
	assert.Equal(t, "getCourses", calls[0].Name)
}
