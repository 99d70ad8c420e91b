package ingest

import (
	"bytes"
	"context"

	"github.com/hupe1980/agentcrew/research"
)

// HTMLConverter extracts the readable text of HTML documents.
type HTMLConverter struct{}

// Convert implements Converter.
func (HTMLConverter) Convert(_ context.Context, src Source) (string, error) {
	title, text, err := research.ExtractText(string(bytes.TrimSpace(src.Data)))
	if err != nil {
		return "", err
	}
	md := Header(src.Name)
	if title != "" {
		md += "## " + title + "\n\n"
	}
	return md + text, nil
}
