package cli

import (
	"fmt"
	"io"
	"sync"

	"estatehub/internal/client/notice"
)

// Printer writes notices to the terminal
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPrinter creates a printer over out
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Notify implements notice.Sink
func (p *Printer) Notify(n notice.Notice) {
	p.Printf("%s %s\n", marker(n.Level), n.Message)
}

// Printf writes formatted output
func (p *Printer) Printf(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

// Writer exposes the underlying writer under the printer's lock
func (p *Printer) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.Write(b)
}

func marker(l notice.Level) string {
	switch l {
	case notice.LevelError:
		return "✖"
	case notice.LevelWarning:
		return "!"
	default:
		return "•"
	}
}
