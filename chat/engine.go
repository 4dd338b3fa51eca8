package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/lyceum-io/lyceum/client"
	"github.com/lyceum-io/lyceum/store"
)

// TurnState tracks where one user turn is in its lifecycle.
type TurnState string

const (
	StateIdle                      TurnState = "idle"
	StateSending                   TurnState = "sending"
	StateAwaitingFunctionExecution TurnState = "awaiting_function_execution"
	StateExecutingFunctions        TurnState = "executing_functions"
	StateAwaitingFollowUp          TurnState = "awaiting_follow_up"
	StateRendering                 TurnState = "rendering"
)

const (
	apologyMessage  = "Sorry, I ran your request but could not put together an answer. Please try again."
	noAnswerMessage = "I'm not sure how to answer that. Could you rephrase?"
)

// ErrTurnInProgress is returned when a send overlaps a running turn on the
// same engine. Callers gate their send control on IsBusy.
var ErrTurnInProgress = errors.New("a turn is already in progress")

// Engine drives one user turn end to end: append the outgoing message, send
// the exchange, execute any requested functions in order, send the follow-up,
// and render exactly one assistant (or error) message. Every path, error
// paths included, terminates in a rendered message.
type Engine struct {
	store      *store.Store
	client     *client.Client
	normalizer *Normalizer
	executor   *Executor

	mu        sync.Mutex
	state     TurnState
	typing    bool
	executing bool
}

func NewEngine(st *store.Store, c *client.Client, guesser IntentGuesser) *Engine {
	return &Engine{
		store:      st,
		client:     c,
		normalizer: NewNormalizer(guesser),
		executor:   NewExecutor(c),
		state:      StateIdle,
	}
}

// State returns the current turn state.
func (e *Engine) State() TurnState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsBusy reports whether a turn is outstanding; the send control stays
// disabled while it is.
func (e *Engine) IsBusy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.typing || e.executing
}

func (e *Engine) setState(s TurnState) {
	e.mu.Lock()
	e.state = s
	e.executing = s == StateExecutingFunctions
	e.mu.Unlock()
}

func (e *Engine) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.typing || e.executing {
		return ErrTurnInProgress
	}
	e.typing = true
	e.state = StateSending
	return nil
}

func (e *Engine) finish() {
	e.mu.Lock()
	e.typing = false
	e.executing = false
	e.state = StateIdle
	e.mu.Unlock()
}

// Send runs one user turn against the given session and returns the rendered
// assistant message. The only error it returns is ErrTurnInProgress (or a
// fatal local-store failure); every exchange failure is rendered as a
// system-error message instead.
func (e *Engine) Send(ctx context.Context, sessionID, query string, exchangeContext any) (*store.Message, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.finish()

	if _, err := e.store.AppendMessage(ctx, sessionID, store.MessageRoleUser, query); err != nil {
		return nil, err
	}

	resp, err := e.client.SendChat(ctx, &client.ChatRequest{
		ID:      sessionID,
		Query:   query,
		Context: exchangeContext,
	})
	if err != nil {
		return e.render(ctx, sessionID, store.MessageRoleSystemError, client.UserMessage(err))
	}

	canonical := e.normalizer.Normalize(resp, query)

	if len(canonical.FunctionCalls) == 0 {
		content := canonical.Content
		if strings.TrimSpace(content) == "" {
			content = noAnswerMessage
		}
		return e.render(ctx, sessionID, store.MessageRoleAssistant, content)
	}

	e.setState(StateAwaitingFunctionExecution)
	e.setState(StateExecutingFunctions)
	results := e.executor.ExecuteAll(ctx, sessionID, canonical.FunctionCalls)

	e.setState(StateAwaitingFollowUp)
	content, err := e.followUp(ctx, sessionID, query, results)
	if err != nil {
		slog.Warn("follow-up request failed", slog.String("session", sessionID), slog.String("error", err.Error()))
		content = apologyMessage
	}
	if strings.TrimSpace(content) == "" {
		content = FormatResults(results)
	}
	return e.render(ctx, sessionID, store.MessageRoleAssistant, content)
}

// followUp sends the executed results back so the backend can produce the
// final natural-language answer.
func (e *Engine) followUp(ctx context.Context, sessionID, query string, results []FunctionResult) (string, error) {
	resp, err := e.client.SendChat(ctx, &client.ChatRequest{
		ID:              sessionID,
		Query:           query,
		FunctionResults: results,
	})
	if err != nil {
		return "", err
	}
	return e.normalizer.Normalize(resp, query).Content, nil
}

func (e *Engine) render(ctx context.Context, sessionID string, role store.MessageRole, content string) (*store.Message, error) {
	e.setState(StateRendering)
	msg, err := e.store.AppendMessage(ctx, sessionID, role, content)
	if err != nil {
		// Even the local fallback failed; this single turn fails.
		return nil, errors.Wrap(err, "failed to render message")
	}
	return msg, nil
}
