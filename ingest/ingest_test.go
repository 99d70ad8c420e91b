package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcrew/knowledge"
)

func TestProcess(t *testing.T) {
	p := NewProcessor()
	ctx := context.Background()

	assert.Equal(t, "# Document: notes.txt\n\nhello", p.Process(ctx, Source{Name: "notes.txt", Data: []byte("hello")}))
	assert.Equal(t, "# Document: scan.png\n\n*Unsupported file type: .png*", p.Process(ctx, Source{Name: "scan.png"}))

	md := p.Process(ctx, Source{Name: "page.HTML", Data: []byte("<html><head><title>T</title></head><body><p>Body text</p></body></html>")})
	assert.Equal(t, "# Document: page.HTML\n\n## T\n\nBody text", md)
}

func TestProcess_ConverterFailure(t *testing.T) {
	p := NewProcessor()
	p.Register(ConverterFunc(func(context.Context, Source) (string, error) {
		return "", errors.New("corrupt file")
	}), ".pdf")

	assert.True(t, p.Supported("report.pdf"))
	assert.Equal(t, "# Document: report.pdf\n\nError processing: corrupt file", p.Process(context.Background(), Source{Name: "report.pdf"}))
}

func TestProcessAll_KeepsOrder(t *testing.T) {
	p := NewProcessor(func(o *Options) { o.Concurrency = 2 })

	srcs := []Source{
		{Name: "a.md", Data: []byte("A")},
		{Name: "b.bin"},
		{Name: "c.txt", Data: []byte("C")},
	}
	docs, err := p.ProcessAll(context.Background(), srcs)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "# Document: a.md\n\nA", docs[0])
	assert.Contains(t, docs[1], "Unsupported file type: .bin")
	assert.Equal(t, "# Document: c.txt\n\nC", docs[2])
}

func TestProcessAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewProcessor().ProcessAll(ctx, []Source{{Name: "a.txt"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCombinePrompt(t *testing.T) {
	assert.Equal(t, "Build it", CombinePrompt("Build it", nil))
	assert.Equal(t,
		"Build it\n\n---\n\n**Attached Document 1:**\n\nD1\n\n---\n\n**Attached Document 2:**\n\nD2",
		CombinePrompt("Build it", []string{"D1", "D2"}))
}

func TestIngestInto(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.md")
	require.NoError(t, os.WriteFile(path, []byte("The parser handles JSON"), 0o644))

	srcs, err := LoadFiles([]string{path})
	require.NoError(t, err)

	store := knowledge.NewMemoryStore(nil)
	results, err := NewProcessor().IngestInto(context.Background(), store, srcs)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "spec.md", results[0].Source)

	hits, err := store.Query(context.Background(), "parser", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Contains(t, hits[0].Content, "The parser handles JSON")

	_, err = LoadFiles([]string{filepath.Join(dir, "missing.txt")})
	assert.Error(t, err)
}
