package export

import (
	"io"

	"github.com/pkg/errors"

	"github.com/lyceum-io/lyceum/store"
)

// Transcript bundles a session with its messages for export.
type Transcript struct {
	Session  *store.ChatSession
	Messages []*store.Message
}

// Exporter writes a transcript in one output format.
type Exporter interface {
	Export(t *Transcript, w io.Writer) error
	Extension() string
}

// NewExporter creates an exporter for the given format.
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "html":
		return &HTMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, errors.Errorf("unsupported format: %s (supported: md, html, json)", format)
	}
}
