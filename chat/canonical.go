package chat

// FunctionCall is the canonical shape of a capability invocation requested by
// the assistant. Name is never empty; calls whose name cannot be determined
// are discarded during normalization.
type FunctionCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// FunctionResult is the canonical outcome of one executed function call.
// Result holds either the backend's value or an {"error": ...} marker.
type FunctionResult struct {
	Name   string `json:"name"`
	Result any    `json:"result"`
}

// CanonicalResponse is the single shape every assistant reply is reduced to.
// Content is always a string and the slices are never nil, so callers never
// branch on shape.
type CanonicalResponse struct {
	Content         string
	FunctionCalls   []FunctionCall
	FunctionResults []FunctionResult
}
