package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentcrew/knowledge"
	"github.com/hupe1980/agentcrew/logging"
)

// Source is one document to convert.
type Source struct {
	// Name is the display name, usually the original file name.
	Name string
	Data []byte
}

// Converter turns a document into markdown.
type Converter interface {
	Convert(ctx context.Context, src Source) (string, error)
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(ctx context.Context, src Source) (string, error)

// Convert implements Converter.
func (f ConverterFunc) Convert(ctx context.Context, src Source) (string, error) { return f(ctx, src) }

// Header returns the markdown heading every converted document starts with.
func Header(name string) string {
	return "# Document: " + name + "\n\n"
}

// TextConverter passes text through under the document header. Invalid
// UTF-8 sequences are dropped.
type TextConverter struct{}

// Convert implements Converter.
func (TextConverter) Convert(_ context.Context, src Source) (string, error) {
	text := string(src.Data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	return Header(src.Name) + text, nil
}

// Options configures a Processor.
type Options struct {
	// Concurrency bounds parallel conversions.
	Concurrency int
	Logger      logging.Logger
}

// Processor picks a converter by file extension.
type Processor struct {
	converters map[string]Converter
	opts       Options
}

// NewProcessor returns a processor handling plain text, markdown, code and
// HTML files.
func NewProcessor(optFns ...func(o *Options)) *Processor {
	opts := Options{Concurrency: 4, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	p := &Processor{converters: map[string]Converter{}, opts: opts}
	for _, ext := range []string{".txt", ".md", ".rtf", ".xml", ".json", ".csv", ".go", ".py", ".yaml", ".yml"} {
		p.converters[ext] = TextConverter{}
	}
	for _, ext := range []string{".html", ".htm"} {
		p.converters[ext] = HTMLConverter{}
	}
	return p
}

// Register installs c for the given extensions (with leading dot).
func (p *Processor) Register(c Converter, exts ...string) {
	for _, ext := range exts {
		p.converters[strings.ToLower(ext)] = c
	}
}

// Supported reports whether name has a registered extension.
func (p *Processor) Supported(name string) bool {
	_, ok := p.converters[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Process converts one document. Unsupported types and conversion failures
// are rendered as markdown rather than returned as errors.
func (p *Processor) Process(ctx context.Context, src Source) string {
	ext := strings.ToLower(filepath.Ext(src.Name))
	conv, ok := p.converters[ext]
	if !ok {
		return Header(src.Name) + fmt.Sprintf("*Unsupported file type: %s*", filepath.Ext(src.Name))
	}

	md, err := conv.Convert(ctx, src)
	if err != nil {
		p.opts.Logger.Warn("ingest.convert_failed", "document", src.Name, "error", err)
		return Header(src.Name) + fmt.Sprintf("Error processing: %v", err)
	}
	return md
}

// ProcessAll converts srcs concurrently; the result keeps the input order.
func (p *Processor) ProcessAll(ctx context.Context, srcs []Source) ([]string, error) {
	out := make([]string, len(srcs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i, src := range srcs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = p.Process(gctx, src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadFiles reads paths into sources named by their base name.
func LoadFiles(paths []string) ([]Source, error) {
	srcs := make([]Source, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		srcs = append(srcs, Source{Name: filepath.Base(path), Data: data})
	}
	return srcs, nil
}

// IngestInto converts srcs and stores each document in store.
func (p *Processor) IngestInto(ctx context.Context, store knowledge.Store, srcs []Source) ([]knowledge.StoreResult, error) {
	docs, err := p.ProcessAll(ctx, srcs)
	if err != nil {
		return nil, err
	}

	results := make([]knowledge.StoreResult, 0, len(docs))
	for i, md := range docs {
		res, err := store.Store(ctx, knowledge.Document{Content: md, Source: srcs[i].Name})
		if err != nil {
			return results, fmt.Errorf("store %s: %w", srcs[i].Name, err)
		}
		results = append(results, res)
	}

	p.opts.Logger.Info("ingest.stored", "documents", len(results))

	return results, nil
}

// CombinePrompt appends each document to prompt as a numbered attachment.
func CombinePrompt(prompt string, docs []string) string {
	if len(docs) == 0 {
		return prompt
	}
	var b bytes.Buffer
	b.WriteString(prompt)
	for i, md := range docs {
		fmt.Fprintf(&b, "\n\n---\n\n**Attached Document %d:**\n\n%s", i+1, md)
	}
	return b.String()
}
