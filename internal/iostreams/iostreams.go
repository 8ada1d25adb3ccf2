// Package iostreams provides terminal I/O for the provisioning CLI:
// stream handles with TTY and color detection, styled status messages,
// structured category logging and session progress rendering.
package iostreams

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"
)

// IOStreams bundles the three process streams with their terminal state.
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer

	stdinTTY  bool
	stdoutTTY bool
	stderrTTY bool

	colorEnabled bool
	quiet        bool
}

// System returns streams bound to stdin/stdout/stderr with TTY, color
// and quiet state resolved from the environment and viper.
func System() *IOStreams {
	s := &IOStreams{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,

		stdinTTY:  isTerminal(os.Stdin),
		stdoutTTY: isTerminal(os.Stdout),
		stderrTTY: isTerminal(os.Stderr),

		quiet: viper.GetBool("quiet"),
	}
	s.colorEnabled = (s.stdoutTTY && !IsColorDisabled()) || colorForced()
	return s
}

// Test returns streams over caller-supplied buffers: no TTY, no color,
// not quiet.
func Test(in io.Reader, out, errOut io.Writer) *IOStreams {
	return &IOStreams{In: in, Out: out, ErrOut: errOut}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsColorDisabled reports whether color output was switched off via
// flags or environment. FORCE_COLOR overrides it at System time.
func IsColorDisabled() bool {
	if viper.GetBool("no_color") || viper.GetBool("no-color") {
		return true
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	if _, ok := os.LookupEnv("FFS_NO_COLOR"); ok {
		return true
	}
	return os.Getenv("TERM") == "dumb"
}

func colorForced() bool {
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return true
	}
	_, ok := os.LookupEnv("FFS_FORCE_COLOR")
	return ok
}

// IsStdinTTY reports whether stdin is a terminal.
func (s *IOStreams) IsStdinTTY() bool { return s.stdinTTY }

// IsStdoutTTY reports whether stdout is a terminal.
func (s *IOStreams) IsStdoutTTY() bool { return s.stdoutTTY }

// IsStderrTTY reports whether stderr is a terminal.
func (s *IOStreams) IsStderrTTY() bool { return s.stderrTTY }

// SetStdoutTTY overrides stdout TTY detection, for tests.
func (s *IOStreams) SetStdoutTTY(tty bool) { s.stdoutTTY = tty }

// ColorEnabled reports whether styled output is active.
func (s *IOStreams) ColorEnabled() bool { return s.colorEnabled }

// SetColorEnabled overrides the detected color state.
func (s *IOStreams) SetColorEnabled(enabled bool) { s.colorEnabled = enabled }

// IsQuiet reports whether non-essential output is suppressed.
func (s *IOStreams) IsQuiet() bool { return s.quiet }

// SetQuiet overrides quiet mode.
func (s *IOStreams) SetQuiet(quiet bool) { s.quiet = quiet }

// Printf writes formatted output to Out.
func (s *IOStreams) Printf(format string, args ...any) {
	fprintf(s.Out, format, args...)
}

// Println writes a line to Out.
func (s *IOStreams) Println(args ...any) {
	fprintln(s.Out, args...)
}

// Errorf writes formatted output to ErrOut.
func (s *IOStreams) Errorf(format string, args ...any) {
	fprintf(s.ErrOut, format, args...)
}

// fprintf is best-effort terminal output; a broken pipe at exit is not
// worth surfacing.
func fprintf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

func fprintln(w io.Writer, args ...any) {
	_, _ = fmt.Fprintln(w, args...)
}
