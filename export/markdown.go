package export

import (
	"fmt"
	"io"
	"time"

	"github.com/lyceum-io/lyceum/store"
)

// MarkdownExporter writes a transcript as a Markdown document.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Extension() string { return "md" }

func (e *MarkdownExporter) Export(t *Transcript, w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# %s\n\n", t.Session.Title); err != nil {
		return err
	}
	created := time.Unix(t.Session.CreatedTs, 0).Format(time.RFC3339)
	if _, err := fmt.Fprintf(w, "Session `%s`, started %s\n\n", t.Session.ID, created); err != nil {
		return err
	}

	for _, msg := range t.Messages {
		ts := time.Unix(msg.CreatedTs, 0).Format("2006-01-02 15:04")
		if _, err := fmt.Fprintf(w, "## %s (%s)\n\n%s\n\n", roleHeading(msg.Role), ts, msg.Content); err != nil {
			return err
		}
	}
	return nil
}

func roleHeading(role store.MessageRole) string {
	switch role {
	case store.MessageRoleUser:
		return "You"
	case store.MessageRoleAssistant:
		return "Assistant"
	case store.MessageRoleSystemError:
		return "Error"
	default:
		return string(role)
	}
}
