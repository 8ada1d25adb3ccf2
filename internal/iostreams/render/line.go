package render

import (
	"fmt"
	"time"
)

// Status is the display state of one progress line.
type Status int

const (
	// Pending marks a state the session has not reached yet.
	Pending Status = iota
	// Running marks the state currently executing.
	Running
	// Success marks a state that completed.
	Success
	// Failed marks a state that failed.
	Failed
)

// Line is the display state of one session state.
type Line struct {
	ID      string
	Message string
	Status  Status

	// StartedAt is set when the line enters Running; Elapsed is the
	// formatted duration, fixed when the line leaves Running.
	StartedAt time.Time
	Elapsed   string

	// Frame advances while Running to animate the activity glyph.
	Frame int
}

// Palette carries the styling hooks the caller wants applied. Every
// function must be non-nil; Plain returns the identity palette.
type Palette struct {
	Accent func(string) string
	Muted  func(string) string
	Good   func(string) string
	Bad    func(string) string
}

// Plain returns a palette that applies no styling.
func Plain() Palette {
	id := func(s string) string { return s }
	return Palette{Accent: id, Muted: id, Good: id, Bad: id}
}

var activityFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Elapsed formats a completed duration, whole seconds only.
func Elapsed(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dm%ds", secs/60, secs%60)
}

// Render formats the line for display.
func (l *Line) Render(p Palette) string {
	switch l.Status {
	case Running:
		glyph := p.Accent(activityFrames[l.Frame%len(activityFrames)])
		out := fmt.Sprintf("%s %s: %s", glyph, p.Accent(l.ID), l.Message)
		if !l.StartedAt.IsZero() {
			out += " " + p.Muted(Elapsed(time.Since(l.StartedAt)))
		}
		return out
	case Success:
		out := fmt.Sprintf("%s %s: %s", p.Good("✔"), p.Good(l.ID), p.Muted(l.Message))
		if l.Elapsed != "" {
			out += " " + p.Muted("("+l.Elapsed+")")
		}
		return out
	case Failed:
		return fmt.Sprintf("%s %s: %s", p.Bad("✘"), p.Bad(l.ID), p.Bad(l.Message))
	default:
		return fmt.Sprintf("%s %s: %s", p.Muted("○"), p.Muted(l.ID), p.Muted(l.Message))
	}
}
