package chat

import (
	"context"
	"log/slog"

	"github.com/lyceum-io/lyceum/client"
)

// Executor runs canonical function calls by sending a function_call directive
// back to the chat endpoint; the backend routes the call internally and
// returns its outcome in function_results.
type Executor struct {
	client *client.Client
}

func NewExecutor(c *client.Client) *Executor {
	return &Executor{client: c}
}

// Execute runs one call. Failures never propagate: a transport or server
// error becomes an {"error": ...} result, and a response carrying a result
// for a different function degrades to the raw response.
func (e *Executor) Execute(ctx context.Context, sessionID string, call FunctionCall) FunctionResult {
	resp, err := e.client.SendChat(ctx, &client.ChatRequest{
		ID:           sessionID,
		FunctionCall: call,
	})
	if err != nil {
		slog.Warn("function call failed", slog.String("function", call.Name), slog.String("error", err.Error()))
		return FunctionResult{Name: call.Name, Result: map[string]any{"error": err.Error()}}
	}

	for _, result := range normalizeResults(resp.FunctionResults) {
		if result.Name == call.Name {
			return result
		}
	}

	// The backend answered, but not with a result for the requested
	// function. Return the raw response as a degraded result.
	slog.Warn("function result name mismatch", slog.String("function", call.Name))
	return FunctionResult{Name: call.Name, Result: resp}
}

// ExecuteAll runs calls one at a time, strictly in source order. The platform
// gives no ordering guarantee from the server, so preserving source order is
// the only deterministic policy; never parallelize this.
func (e *Executor) ExecuteAll(ctx context.Context, sessionID string, calls []FunctionCall) []FunctionResult {
	results := make([]FunctionResult, 0, len(calls))
	for _, call := range calls {
		results = append(results, e.Execute(ctx, sessionID, call))
	}
	return results
}
