package export

import (
	"encoding/json"
	"io"
	"time"
)

// JSONExporter writes a transcript as a single JSON document with RFC 3339
// timestamps.
type JSONExporter struct{}

func (e *JSONExporter) Extension() string { return "json" }

type jsonSession struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	LocalOnly bool          `json:"local_only,omitempty"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
	Messages  []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func (e *JSONExporter) Export(t *Transcript, w io.Writer) error {
	doc := jsonSession{
		ID:        t.Session.ID,
		Title:     t.Session.Title,
		LocalOnly: t.Session.LocalOnly,
		CreatedAt: formatTs(t.Session.CreatedTs),
		UpdatedAt: formatTs(t.Session.UpdatedTs),
		Messages:  make([]jsonMessage, 0, len(t.Messages)),
	}
	for _, msg := range t.Messages {
		doc.Messages = append(doc.Messages, jsonMessage{
			ID:        msg.ID,
			Role:      string(msg.Role),
			Content:   msg.Content,
			CreatedAt: formatTs(msg.CreatedTs),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func formatTs(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}
