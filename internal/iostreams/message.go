package iostreams

import (
	"fmt"
	"io"
	"os"

	"charm.land/lipgloss/v2"

	"github.com/ffs-wifi/provisionee/internal/theme"
)

// Styled one-line status messages. Info, Success and Count are
// suppressed in quiet mode; Warning and Error always reach ErrOut.

// Info prints an informational line.
func (s *IOStreams) Info(format string, args ...any) {
	if s.quiet {
		return
	}
	s.statusLine(s.Out, theme.StatusInfo(), "→", fmt.Sprintf(format, args...))
}

// Success prints a success line.
func (s *IOStreams) Success(format string, args ...any) {
	if s.quiet {
		return
	}
	s.statusLine(s.Out, theme.StatusOK(), "✓", fmt.Sprintf(format, args...))
}

// Warning prints a warning line to ErrOut.
func (s *IOStreams) Warning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if s.colorEnabled {
		msg = lipgloss.NewStyle().Foreground(theme.Yellow()).Render(msg)
	}
	s.statusLine(s.ErrOut, theme.StatusWarn(), "⚠", msg)
}

// Error prints an error line to ErrOut. Command failures should be
// returned as errors instead; this is for non-fatal notices.
func (s *IOStreams) Error(format string, args ...any) {
	s.statusLine(s.ErrOut, theme.StatusError(), "✗", fmt.Sprintf(format, args...))
}

// Count prints a result summary, e.g. "Found 5 keys".
func (s *IOStreams) Count(noun string, count int) {
	if s.quiet {
		return
	}
	plural := "s"
	if count == 1 {
		plural = ""
	}
	fprintf(s.Out, "Found %d %s%s\n", count, noun, plural)
}

func (s *IOStreams) statusLine(w io.Writer, style lipgloss.Style, glyph, msg string) {
	if s.colorEnabled {
		glyph = style.Render(glyph)
	}
	fprintln(w, glyph+" "+msg)
}

// Error prints an error line to stderr for callers without an IOStreams
// value, e.g. main before the command tree runs.
func Error(format string, args ...any) {
	fprintln(os.Stderr, "✗ "+fmt.Sprintf(format, args...))
}

// Warning prints a warning line to stderr for callers without an
// IOStreams value.
func Warning(format string, args ...any) {
	fprintln(os.Stderr, "⚠ "+fmt.Sprintf(format, args...))
}
