package knowledge

import (
	"regexp"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 50
	DefaultEncoding     = "cl100k_base"
)

// Tokenizer turns text into a token sequence.
type Tokenizer interface {
	Tokenize(text string) Tokens
}

// Tokens is a tokenized text. Text renders the contiguous range [start, end).
type Tokens interface {
	Len() int
	Text(start, end int) string
}

// TiktokenTokenizer splits text into BPE tokens.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads the named encoding.
func NewTiktokenTokenizer(encoding string) (*TiktokenTokenizer, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

// Tokenize implements Tokenizer.
func (t *TiktokenTokenizer) Tokenize(text string) Tokens {
	return bpeTokens{enc: t.enc, ids: t.enc.Encode(text, nil, nil)}
}

type bpeTokens struct {
	enc *tiktoken.Tiktoken
	ids []int
}

func (b bpeTokens) Len() int { return len(b.ids) }

// Text decodes the window as a whole. A rune split across the window edge
// is dropped rather than emitted as invalid UTF-8.
func (b bpeTokens) Text(start, end int) string {
	return strings.ToValidUTF8(b.enc.Decode(b.ids[start:end]), "")
}

var wordPattern = regexp.MustCompile(`\S+\s*|\s+`)

// WordTokenizer treats every whitespace separated word as one token.
type WordTokenizer struct{}

// Tokenize implements Tokenizer.
func (WordTokenizer) Tokenize(text string) Tokens {
	return wordTokens(wordPattern.FindAllString(text, -1))
}

type wordTokens []string

func (w wordTokens) Len() int { return len(w) }

func (w wordTokens) Text(start, end int) string { return strings.Join(w[start:end], "") }

var (
	defaultTokenizerOnce sync.Once
	defaultTokenizer     Tokenizer
)

// DefaultTokenizer returns the cl100k_base tokenizer, or WordTokenizer when
// the encoding cannot be loaded.
func DefaultTokenizer() Tokenizer {
	defaultTokenizerOnce.Do(func() {
		if tk, err := NewTiktokenTokenizer(DefaultEncoding); err == nil {
			defaultTokenizer = tk
			return
		}
		defaultTokenizer = WordTokenizer{}
	})
	return defaultTokenizer
}

// Chunker splits text into fixed size token windows that overlap by a fixed
// number of tokens.
type Chunker struct {
	Tokenizer Tokenizer
	Size      int
	Overlap   int
}

// NewChunker returns a chunker with the default tokenizer and window.
func NewChunker() *Chunker {
	return &Chunker{Tokenizer: DefaultTokenizer(), Size: DefaultChunkSize, Overlap: DefaultChunkOverlap}
}

// Split returns the chunks of text using the chunker's window.
func (c *Chunker) Split(text string) []string {
	return c.SplitWith(text, c.Size, c.Overlap)
}

// SplitWith splits text with an explicit window. Non-positive sizes fall back
// to the defaults; the overlap is kept below the size.
func (c *Chunker) SplitWith(text string, size, overlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	tk := c.Tokenizer
	if tk == nil {
		tk = DefaultTokenizer()
	}
	tokens := tk.Tokenize(text)
	n := tokens.Len()

	var chunks []string
	step := size - overlap
	for start := 0; start < n; start += step {
		end := min(start+size, n)
		chunk := strings.TrimSpace(tokens.Text(start, end))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == n {
			break
		}
	}
	return chunks
}
