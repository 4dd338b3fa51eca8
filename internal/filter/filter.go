package filter

import (
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"github.com/lyceum-io/lyceum/store"
)

// SessionFilter evaluates a CEL expression against chat session fields.
// Supported variables: title, pinned, local_only, created_ts, updated_ts.
type SessionFilter struct {
	program cel.Program
}

// Compile parses and checks a filter expression such as
// `title.contains("CS") && !local_only`.
func Compile(expression string) (*SessionFilter, error) {
	env, err := cel.NewEnv(
		cel.Variable("title", cel.StringType),
		cel.Variable("pinned", cel.BoolType),
		cel.Variable("local_only", cel.BoolType),
		cel.Variable("created_ts", cel.IntType),
		cel.Variable("updated_ts", cel.IntType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create filter environment")
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "invalid filter %q", expression)
	}
	if ast.OutputType() != cel.BoolType {
		return nil, errors.Errorf("filter %q must evaluate to a boolean", expression)
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build filter program")
	}
	return &SessionFilter{program: program}, nil
}

// Match reports whether the session satisfies the filter.
func (f *SessionFilter) Match(session *store.ChatSession) (bool, error) {
	out, _, err := f.program.Eval(map[string]any{
		"title":      session.Title,
		"pinned":     session.Pinned,
		"local_only": session.LocalOnly,
		"created_ts": session.CreatedTs,
		"updated_ts": session.UpdatedTs,
	})
	if err != nil {
		return false, errors.Wrap(err, "failed to evaluate filter")
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, errors.New("filter did not produce a boolean")
	}
	return matched, nil
}

// Apply returns the sessions matching the filter, preserving order.
func (f *SessionFilter) Apply(sessions []*store.ChatSession) ([]*store.ChatSession, error) {
	matched := make([]*store.ChatSession, 0, len(sessions))
	for _, session := range sessions {
		ok, err := f.Match(session)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, session)
		}
	}
	return matched, nil
}
