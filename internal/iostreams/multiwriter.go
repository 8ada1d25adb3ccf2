package iostreams

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/ffs-wifi/provisionee/internal/iostreams/render"
	"github.com/ffs-wifi/provisionee/internal/theme"
)

// frameInterval paces the running-line animation.
const frameInterval = 120 * time.Millisecond

// Status is the public display state of one progress line.
type Status int

const (
	// StatusPending marks a line whose state has not started.
	StatusPending Status = iota
	// StatusRunning marks the state currently executing.
	StatusRunning
	// StatusSuccess marks a completed state.
	StatusSuccess
	// StatusError marks a failed state.
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

func (s Status) render() render.Status {
	switch s {
	case StatusRunning:
		return render.Running
	case StatusSuccess:
		return render.Success
	case StatusError:
		return render.Failed
	default:
		return render.Pending
	}
}

// MultiWriter renders one updatable line per session state. On a TTY
// the block repaints in place with an animated glyph on the running
// line; otherwise each status change prints one plain line.
type MultiWriter struct {
	mu  sync.Mutex
	out io.Writer
	tty bool

	lines   []*render.Line
	byID    map[string]*render.Line
	palette render.Palette

	// painted is the height of the previous TTY frame.
	painted int
	// printed is the last plain-printed status per line.
	printed map[string]render.Status

	ticker    *time.Ticker
	done      chan struct{}
	finalized bool
}

// NewMultiWriter returns a writer rendering to out. isTTY selects
// between in-place repainting and plain line-per-change output.
func NewMultiWriter(out io.Writer, isTTY bool) *MultiWriter {
	m := &MultiWriter{
		out:     out,
		tty:     isTTY,
		byID:    make(map[string]*render.Line),
		printed: make(map[string]render.Status),
		palette: render.Plain(),
	}
	if isTTY {
		m.palette = themePalette()
	}
	return m
}

// AddLine registers a pending line. Lines render in insertion order.
func (m *MultiWriter) AddLine(id, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	line := &render.Line{ID: id, Message: message}
	m.lines = append(m.lines, line)
	m.byID[id] = line

	if m.tty {
		if m.ticker == nil {
			m.ticker = time.NewTicker(frameInterval)
			m.done = make(chan struct{})
			go m.animate(m.ticker, m.done)
		}
		m.paintLocked()
	}
}

// UpdateLine moves an existing line to a new status and message.
// Unknown IDs are ignored.
func (m *MultiWriter) UpdateLine(id string, status Status, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	line := m.byID[id]
	if line == nil {
		return
	}

	next := status.render()
	if next == render.Running && line.Status != render.Running {
		line.StartedAt = time.Now()
	}
	if next != render.Running && line.Status == render.Running && !line.StartedAt.IsZero() {
		line.Elapsed = render.Elapsed(time.Since(line.StartedAt))
	}
	line.Status = next
	line.Message = message

	if m.tty {
		m.paintLocked()
	} else {
		m.printLocked(line)
	}
}

// Finalize paints the final frame, prints any pending plain lines and
// stops the animation. Idempotent.
func (m *MultiWriter) Finalize() {
	m.mu.Lock()
	if m.finalized {
		m.mu.Unlock()
		return
	}
	m.finalized = true
	ticker, done := m.ticker, m.done
	m.ticker = nil

	if m.tty {
		m.paintLocked()
		fprintf(m.out, "%s", render.ShowCursor())
	} else {
		for _, line := range m.lines {
			m.printLocked(line)
		}
	}
	m.mu.Unlock()

	if ticker != nil {
		ticker.Stop()
		close(done)
	}
}

// animate advances the running glyph between explicit updates.
func (m *MultiWriter) animate(ticker *time.Ticker, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.mu.Lock()
			if m.finalized {
				m.mu.Unlock()
				return
			}
			for _, line := range m.lines {
				if line.Status == render.Running {
					line.Frame++
				}
			}
			m.paintLocked()
			m.mu.Unlock()
		}
	}
}

// paintLocked repaints the whole block in place.
func (m *MultiWriter) paintLocked() {
	width := terminalWidth()

	var frame strings.Builder
	frame.WriteString(render.HideCursor())
	frame.WriteString(render.MoveUp(m.painted))
	for _, line := range m.lines {
		text := line.Render(m.palette)
		if width > 0 {
			text = render.Truncate(text, width)
		}
		frame.WriteString("\r")
		frame.WriteString(render.ClearLine())
		frame.WriteString(text)
		frame.WriteString("\n")
	}
	frame.WriteString(render.ShowCursor())

	fprintf(m.out, "%s", frame.String())
	m.painted = len(m.lines)
}

// printLocked emits one plain line when the status changed.
func (m *MultiWriter) printLocked(line *render.Line) {
	if m.printed[line.ID] == line.Status {
		return
	}
	fprintln(m.out, line.Render(m.palette))
	m.printed[line.ID] = line.Status
}

func themePalette() render.Palette {
	style := func(s interface{ Render(...string) string }) func(string) string {
		return func(text string) string { return s.Render(text) }
	}
	return render.Palette{
		Accent: style(theme.Highlight()),
		Muted:  style(theme.Dim()),
		Good:   style(theme.StatusOK()),
		Bad:    style(theme.StatusError()),
	}
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}
