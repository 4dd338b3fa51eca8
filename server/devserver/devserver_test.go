package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) map[string]any {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestChat_ResponseShapes(t *testing.T) {
	ts := httptest.NewServer(New().Handler())
	defer ts.Close()

	t.Run("assignments query returns canonical array", func(t *testing.T) {
		out := postJSON(t, ts, "/api/v1/assistant/chat", map[string]any{"query": "what homework is due?"})
		calls, ok := out["function_calls"].([]any)
		require.True(t, ok)
		require.Len(t, calls, 1)
		call := calls[0].(map[string]any)
		assert.Equal(t, "getAssignments", call["name"])
	})

	t.Run("courses query returns nested envelope object", func(t *testing.T) {
		out := postJSON(t, ts, "/api/v1/assistant/chat", map[string]any{"query": "my classes"})
		call, ok := out["function_calls"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "function", call["type"])
		inner := call["function"].(map[string]any)
		assert.Equal(t, "getCourses", inner["name"])
	})

	t.Run("profile query returns fenced pseudo-code", func(t *testing.T) {
		out := postJSON(t, ts, "/api/v1/assistant/chat", map[string]any{"query": "show my profile"})
		calls, ok := out["function_calls"].(string)
		require.True(t, ok)
		assert.Contains(t, calls, "```tool_code")
		assert.Contains(t, calls, "getProfile()")
	})

	t.Run("other queries answer with content", func(t *testing.T) {
		out := postJSON(t, ts, "/api/v1/assistant/chat", map[string]any{"query": "hi"})
		assert.NotEmpty(t, out["content"])
		assert.Nil(t, out["function_calls"])
	})

	t.Run("function call directive serves fixtures", func(t *testing.T) {
		out := postJSON(t, ts, "/api/v1/assistant/chat", map[string]any{
			"function_call": map[string]any{"name": "getAssignments"},
		})
		results, ok := out["function_results"].([]any)
		require.True(t, ok)
		require.Len(t, results, 1)
		result := results[0].(map[string]any)
		assert.Equal(t, "getAssignments", result["name"])
	})

	t.Run("follow-up round returns empty content", func(t *testing.T) {
		out := postJSON(t, ts, "/api/v1/assistant/chat", map[string]any{
			"query":            "what homework is due?",
			"function_results": []any{map[string]any{"name": "getAssignments", "result": map[string]any{}}},
		})
		assert.Equal(t, "", out["content"])
	})
}

func TestSessionLifecycle(t *testing.T) {
	ts := httptest.NewServer(New().Handler())
	defer ts.Close()

	created := postJSON(t, ts, "/api/v1/chat-sessions", map[string]any{"title": "CS101"})
	session := created["data"].(map[string]any)["chatSession"].(map[string]any)
	id := session["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "CS101", session["title"])

	appended := postJSON(t, ts, "/api/v1/chat-sessions/"+id+"/messages", map[string]any{
		"role": "user", "content": "hello",
	})
	msg := appended["data"].(map[string]any)["message"].(map[string]any)
	assert.Equal(t, "hello", msg["content"])

	resp, err := http.Get(ts.URL + "/api/v1/chat-sessions/" + id + "/messages")
	require.NoError(t, err)
	defer resp.Body.Close()
	var listed map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	messages := listed["data"].(map[string]any)["messages"].([]any)
	require.Len(t, messages, 1)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/chat-sessions/"+id, nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusOK, delResp.StatusCode)

	resp2, err := http.Get(ts.URL + "/api/v1/chat-sessions/" + id + "/messages")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
