package iostreams

import (
	"io"
	"time"

	"github.com/briandowns/spinner"

	"github.com/ffs-wifi/provisionee/internal/theme"
)

// Spinner is a single-line activity indicator for the slow pre-session
// Wi-Fi phase of a run: joining the setup network and the first scan.
// Callers on non-TTY streams should print a plain line instead.
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner returns a stopped spinner writing to w.
func NewSpinner(w io.Writer, message string) *Spinner {
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	// Color is cosmetic; an unsupported name just leaves it unset.
	_ = s.Color("fgHiCyan")
	return &Spinner{s: s}
}

// Start begins the animation.
func (p *Spinner) Start() { p.s.Start() }

// Stop halts the animation and clears the line.
func (p *Spinner) Stop() { p.s.Stop() }

// UpdateMessage replaces the text after the glyph.
func (p *Spinner) UpdateMessage(message string) {
	p.s.Suffix = " " + message
}

// StopWithSuccess halts the animation, leaving a success line behind.
// When the animation never ran, the line is written directly.
func (p *Spinner) StopWithSuccess(message string) {
	p.s.FinalMSG = theme.StatusOK().Render("✓") + " " + message + "\n"
	if !p.s.Active() {
		fprintf(p.s.Writer, "%s", p.s.FinalMSG)
		return
	}
	p.s.Stop()
}

// StopWithError halts the animation, leaving a failure line behind.
// When the animation never ran, the line is written directly.
func (p *Spinner) StopWithError(message string) {
	p.s.FinalMSG = theme.StatusError().Render("✗") + " " + message + "\n"
	if !p.s.Active() {
		fprintf(p.s.Writer, "%s", p.s.FinalMSG)
		return
	}
	p.s.Stop()
}

// SetupNetworkSpinner indicates the pre-session phase: deriving the
// setup network, associating with it and running the first scan.
func SetupNetworkSpinner(w io.Writer) *Spinner {
	return NewSpinner(w, "Joining setup network...")
}
