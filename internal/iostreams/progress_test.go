package iostreams

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

// lockedBuffer serializes writes from the spinner's paint goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_StopWithSuccess(t *testing.T) {
	t.Parallel()

	var buf lockedBuffer
	s := NewSpinner(&buf, "associating")
	s.Start()
	s.StopWithSuccess("associated")

	if got := buf.String(); !strings.Contains(got, "associated") {
		t.Errorf("final output = %q", got)
	}
}

func TestSpinner_StopWithError(t *testing.T) {
	t.Parallel()

	var buf lockedBuffer
	s := NewSpinner(&buf, "probing")
	s.Start()
	s.StopWithError("probe failed")

	if got := buf.String(); !strings.Contains(got, "probe failed") {
		t.Errorf("final output = %q", got)
	}
}

func TestSpinner_UpdateMessage(t *testing.T) {
	t.Parallel()

	var buf lockedBuffer
	s := NewSpinner(&buf, "first")
	s.UpdateMessage("second")
	s.Start()
	s.Stop()

	// The message is carried as the spinner suffix; stopping leaves no
	// final line, so only presence matters while running.
	if s.s.Suffix != " second" {
		t.Errorf("suffix = %q", s.s.Suffix)
	}
}

func TestSetupNetworkSpinner(t *testing.T) {
	t.Parallel()

	var buf lockedBuffer
	s := SetupNetworkSpinner(&buf)
	if !strings.Contains(s.s.Suffix, "setup network") {
		t.Errorf("suffix = %q", s.s.Suffix)
	}
}
