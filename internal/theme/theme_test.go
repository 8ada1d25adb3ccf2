package theme

import (
	"testing"

	"charm.land/lipgloss/v2"
)

// TestStyleFunctions verifies all style accessors render non-empty output.
func TestStyleFunctions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func() lipgloss.Style
	}{
		{"Title", Title},
		{"Subtitle", Subtitle},
		{"Dim", Dim},
		{"Highlight", Highlight},
		{"StatusOK", StatusOK},
		{"StatusWarn", StatusWarn},
		{"StatusError", StatusError},
		{"StatusInfo", StatusInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.fn().Render("test"); got == "" {
				t.Errorf("%s().Render() returned empty string", tt.name)
			}
		})
	}
}
