package client

import (
	"context"
	"net/http"
)

const chatPath = "/api/v1/assistant/chat"

// ChatRequest is the body of one assistant exchange. FunctionResults carries
// results from a previous round of function execution; FunctionCall asks the
// backend to run a single capability and return its outcome.
type ChatRequest struct {
	ID              string `json:"id"`
	Query           string `json:"query"`
	Context         any    `json:"context,omitempty"`
	FunctionResults any    `json:"function_results,omitempty"`
	FunctionCall    any    `json:"function_call,omitempty"`
}

// RawChatResponse is the assistant's reply before normalization. Every field
// is deliberately loose: the backend has been observed to return strings,
// single objects, arrays and fenced-code text under the same keys.
type RawChatResponse struct {
	Content         any    `json:"content"`
	FunctionCalls   any    `json:"function_calls"`
	FunctionResults any    `json:"function_results"`
	Error           string `json:"error"`
}

// SendChat posts one exchange to the assistant endpoint. The returned
// response is raw and must pass through chat.Normalize before use.
func (c *Client) SendChat(ctx context.Context, req *ChatRequest) (*RawChatResponse, error) {
	var resp RawChatResponse
	if err := c.do(ctx, http.MethodPost, chatPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
