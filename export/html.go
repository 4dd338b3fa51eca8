package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// HTMLExporter renders the Markdown transcript to a standalone HTML page.
// Message content is authored as Markdown, so the Markdown exporter provides
// the source document.
type HTMLExporter struct{}

func (e *HTMLExporter) Extension() string { return "html" }

func (e *HTMLExporter) Export(t *Transcript, w io.Writer) error {
	var source bytes.Buffer
	md := &MarkdownExporter{}
	if err := md.Export(t, &source); err != nil {
		return err
	}

	converter := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)

	var body bytes.Buffer
	if err := converter.Convert(source.Bytes(), &body); err != nil {
		return errors.Wrap(err, "failed to render transcript")
	}

	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n", t.Session.Title); err != nil {
		return err
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}
