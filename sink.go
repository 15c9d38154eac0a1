package platformstrategy

import (
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// OutputSink is the host's append-only text destination.
type OutputSink interface {
	Append(text string)
}

// WriterSink appends to an io.Writer. Write errors are dropped: the sink is
// owned by the host and the facade has nowhere to report them.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Append(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.w, text)
}

// ColorSink writes each appended text through a fatih/color printer chosen
// by the first rule whose prefix matches. Unmatched text is written plain.
type ColorSink struct {
	mu    sync.Mutex
	w     io.Writer
	rules []colorRule
}

type colorRule struct {
	prefix string
	c      *color.Color
}

func NewColorSink(w io.Writer) *ColorSink {
	return &ColorSink{w: w}
}

// Highlight registers attrs for text starting with prefix.
func (s *ColorSink) Highlight(prefix string, attrs ...color.Attribute) *ColorSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, colorRule{prefix: prefix, c: color.New(attrs...)})
	return s
}

func (s *ColorSink) Append(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rules {
		if strings.HasPrefix(text, r.prefix) {
			_, _ = r.c.Fprint(s.w, text)
			return
		}
	}
	_, _ = io.WriteString(s.w, text)
}

// BufferSink keeps everything appended in memory.
type BufferSink struct {
	mu      sync.Mutex
	appends []string
}

func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

func (s *BufferSink) Append(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appends = append(s.appends, text)
}

// Appends returns each Append call's text in order.
func (s *BufferSink) Appends() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.appends...)
}

// String returns the concatenated contents.
func (s *BufferSink) String() string {
	return strings.Join(s.Appends(), "")
}
