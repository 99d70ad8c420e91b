package runner

import (
	"bufio"
	"fmt"
	"io"
)

// LineReader reads newline separated input, writing a prompt before each line.
type LineReader struct {
	scanner *bufio.Scanner
	out     io.Writer
	prompt  string
}

// NewLineReader reads lines from in; prompt is written to out (when non-nil)
// before every read.
func NewLineReader(in io.Reader, out io.Writer, prompt string) *LineReader {
	return &LineReader{scanner: bufio.NewScanner(in), out: out, prompt: prompt}
}

// ReadLine implements InputReader.
func (l *LineReader) ReadLine() (string, error) {
	if l.out != nil && l.prompt != "" {
		fmt.Fprint(l.out, l.prompt)
	}
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return l.scanner.Text(), nil
}

// InputFunc adapts a function to InputReader.
type InputFunc func() (string, error)

// ReadLine implements InputReader.
func (f InputFunc) ReadLine() (string, error) { return f() }
