package iostreams

import (
	"bytes"
	"strings"
	"testing"
)

func TestMultiWriter_PlainPrintsOnChange(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	m := NewMultiWriter(&out, false)

	m.AddLine("START_PROVISIONING", "waiting")
	m.AddLine("CONNECT_TO_NETWORK", "waiting")
	if out.Len() != 0 {
		t.Errorf("pending lines printed eagerly: %q", out.String())
	}

	m.UpdateLine("START_PROVISIONING", StatusRunning, "in progress")
	m.UpdateLine("START_PROVISIONING", StatusRunning, "in progress")
	m.UpdateLine("START_PROVISIONING", StatusSuccess, "done")
	m.Finalize()

	got := out.String()
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("plain output = %q, want one line per status change", got)
	}
	if !strings.Contains(lines[0], "in progress") || !strings.Contains(lines[1], "done") {
		t.Errorf("plain output = %q", got)
	}
	if strings.Contains(got, "\x1b[") {
		t.Errorf("plain output carries escape sequences: %q", got)
	}
}

func TestMultiWriter_TTYRepaintsInPlace(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	m := NewMultiWriter(&out, true)

	m.AddLine("START_PROVISIONING", "waiting")
	m.UpdateLine("START_PROVISIONING", StatusRunning, "in progress")
	m.Finalize()

	got := out.String()
	if !strings.Contains(got, "START_PROVISIONING") {
		t.Errorf("TTY output = %q", got)
	}
	if !strings.Contains(got, "\x1b[2K") {
		t.Error("TTY repaint should clear lines")
	}
	if !strings.Contains(got, "\x1b[?25h") {
		t.Error("finalize should restore the cursor")
	}
}

func TestMultiWriter_UnknownIDIgnored(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	m := NewMultiWriter(&out, false)
	m.UpdateLine("NEVER_ADDED", StatusError, "boom")
	m.Finalize()

	if strings.Contains(out.String(), "boom") {
		t.Errorf("unknown line rendered: %q", out.String())
	}
}

func TestMultiWriter_FinalizeIdempotent(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	m := NewMultiWriter(&out, false)
	m.AddLine("X", "waiting")
	m.UpdateLine("X", StatusError, "failed")

	m.Finalize()
	first := out.String()
	m.Finalize()

	if out.String() != first {
		t.Errorf("second Finalize changed output: %q -> %q", first, out.String())
	}
}

func TestStatus_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status Status
		want   string
	}{
		{StatusPending, "pending"},
		{StatusRunning, "running"},
		{StatusSuccess, "success"},
		{StatusError, "error"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}
