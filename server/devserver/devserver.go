package devserver

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
)

// Server is an in-memory stand-in for the Lyceum backend, used for local
// development and end-to-end tests. Its chat endpoint deliberately answers
// with the same heterogeneous function_call shapes the production backend
// has been observed to produce, so the client's normalizer is exercised for
// real.
type Server struct {
	echo *echo.Echo

	mu       sync.Mutex
	sessions map[string]*sessionRecord
}

type sessionRecord struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []*messageRecord `json:"-"`
}

type messageRecord struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates a dev server with empty state.
func New() *Server {
	s := &Server{
		echo:     echo.New(),
		sessions: map[string]*sessionRecord{},
	}
	s.echo.HideBanner = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(newRateLimiter().middleware())

	api := s.echo.Group("/api/v1")
	api.GET("/chat-sessions", s.listSessions)
	api.POST("/chat-sessions", s.createSession)
	api.PATCH("/chat-sessions/:id", s.updateSession)
	api.DELETE("/chat-sessions/:id", s.deleteSession)
	api.GET("/chat-sessions/:id/messages", s.listMessages)
	api.POST("/chat-sessions/:id/messages", s.appendMessage)
	api.POST("/assistant/chat", s.chat)

	return s
}

// Handler exposes the underlying HTTP handler for httptest-based tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("dev server listening", slog.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func envelope(data any) map[string]any {
	return map[string]any{"data": data}
}

func (s *Server) listSessions(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*sessionRecord, 0, len(s.sessions))
	for _, session := range s.sessions {
		list = append(list, session)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	return c.JSON(http.StatusOK, envelope(map[string]any{"chatSessions": list}))
}

func (s *Server) createSession(c echo.Context) error {
	var body struct {
		Title string `json:"title"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	now := time.Now()
	session := &sessionRecord{
		ID:        uuid.NewString(),
		Title:     body.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return c.JSON(http.StatusOK, envelope(map[string]any{"chatSession": session}))
}

func (s *Server) updateSession(c echo.Context) error {
	var body struct {
		Title  *string `json:"title"`
		Pinned *bool   `json:"pinned"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[c.Param("id")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	if body.Title != nil {
		session.Title = *body.Title
	}
	if body.Pinned != nil {
		session.Pinned = *body.Pinned
	}
	session.UpdatedAt = time.Now()
	return c.JSON(http.StatusOK, envelope(map[string]any{"chatSession": session}))
}

func (s *Server) deleteSession(c echo.Context) error {
	s.mu.Lock()
	delete(s.sessions, c.Param("id"))
	s.mu.Unlock()
	return c.JSON(http.StatusOK, envelope(map[string]any{}))
}

func (s *Server) listMessages(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[c.Param("id")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, envelope(map[string]any{"messages": session.Messages}))
}

func (s *Server) appendMessage(c echo.Context) error {
	var body struct {
		ID      string `json:"id"`
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[c.Param("id")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	if body.ID == "" {
		body.ID = uuid.NewString()
	}
	msg := &messageRecord{
		ID:        body.ID,
		SessionID: session.ID,
		Role:      body.Role,
		Content:   body.Content,
		CreatedAt: time.Now(),
	}
	session.Messages = append(session.Messages, msg)
	session.UpdatedAt = msg.CreatedAt
	return c.JSON(http.StatusOK, envelope(map[string]any{"message": msg}))
}

type chatRequest struct {
	ID              string         `json:"id"`
	Query           string         `json:"query"`
	Context         any            `json:"context"`
	FunctionResults []any          `json:"function_results"`
	FunctionCall    map[string]any `json:"function_call"`
}

// chat mimics the assistant endpoint. Function-call directives are served
// from fixture data; fresh queries answer with one of several response
// shapes depending on the matched capability.
func (s *Server) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.FunctionCall != nil {
		name, _ := req.FunctionCall["name"].(string)
		result, ok := fixtureResult(name)
		if !ok {
			return c.JSON(http.StatusOK, map[string]any{
				"content": "Unknown capability: " + name,
			})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"function_results": []any{map[string]any{"name": name, "result": result}},
		})
	}

	if len(req.FunctionResults) > 0 {
		// Follow-up round: the real backend would summarize the results.
		// The dev server leaves content empty so the client renders its
		// own transcript of the results.
		return c.JSON(http.StatusOK, map[string]any{"content": ""})
	}

	query := strings.ToLower(req.Query)
	switch {
	case strings.Contains(query, "assignment") || strings.Contains(query, "homework"):
		// Canonical array shape.
		return c.JSON(http.StatusOK, map[string]any{
			"content": "",
			"function_calls": []any{
				map[string]any{"name": "getAssignments", "arguments": map[string]any{}},
			},
		})
	case strings.Contains(query, "course") || strings.Contains(query, "class"):
		// Nested single-object envelope shape.
		return c.JSON(http.StatusOK, map[string]any{
			"content": "",
			"function_calls": map[string]any{
				"type":     "function",
				"function": map[string]any{"name": "getCourses", "arguments": map[string]any{}},
			},
		})
	case strings.Contains(query, "profile"):
		// Fenced pseudo-code shape.
		return c.JSON(http.StatusOK, map[string]any{
			"content":        "",
			"function_calls": "```tool_code\ngetProfile()\n```",
		})
	default:
		return c.JSON(http.StatusOK, map[string]any{
			"content": "Hello! Ask me about your courses, assignments or profile.",
		})
	}
}

func fixtureResult(name string) (any, bool) {
	switch name {
	case "getCourses":
		return map[string]any{"courses": []any{
			map[string]any{"title": "Introduction to Computer Science", "code": "CS101", "instructor": "Dr. Reyes"},
			map[string]any{"title": "Linear Algebra", "code": "MATH204", "instructor": "Prof. Okafor"},
		}}, true
	case "getAssignments":
		return map[string]any{"assignments": []any{
			map[string]any{
				"title":             "HW1",
				"due_date":          "2024-01-01",
				"submission_status": "pending",
				"course":            map[string]any{"title": "CS101"},
			},
		}}, true
	case "getProfile":
		return map[string]any{"profile": map[string]any{
			"name":  "Jordan Lee",
			"email": "jordan.lee@example.edu",
			"major": "Computer Science",
			"year":  "Sophomore",
		}}, true
	default:
		return nil, false
	}
}
