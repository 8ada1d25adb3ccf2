package iostreams

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestLogger_LevelFilter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.SetLevel(LevelWarn)

	l.Log(LevelDebug, CategoryDSS, "dropped")
	l.Log(LevelWarn, CategoryDSS, "kept")
	l.Log(LevelError, CategoryWifi, "kept too")

	got := buf.String()
	if strings.Contains(got, "dropped") {
		t.Errorf("below-level entry emitted: %q", got)
	}
	if !strings.Contains(got, "warn:dss: kept") || !strings.Contains(got, "error:wifi: kept too") {
		t.Errorf("log output = %q", got)
	}
}

func TestLogger_CategoryFilter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.SetCategories([]LogCategory{CategoryWifi})

	l.Log(LevelInfo, CategoryDSS, "filtered")
	l.Log(LevelInfo, CategoryWifi, "passes")
	l.Log(LevelInfo, "", "uncategorized passes")

	got := buf.String()
	if strings.Contains(got, "filtered") {
		t.Errorf("filtered category emitted: %q", got)
	}
	if !strings.Contains(got, "passes") || !strings.Contains(got, "uncategorized passes") {
		t.Errorf("log output = %q", got)
	}

	// A nil filter readmits everything.
	l.SetCategories(nil)
	l.Log(LevelInfo, CategoryDSS, "readmitted")
	if !strings.Contains(buf.String(), "readmitted") {
		t.Error("clearing the category filter did not readmit entries")
	}
}

func TestLogger_JSONMode(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.SetJSONMode(true)

	l.Log(LevelInfo, CategoryState, "state %s", "DONE")

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry.Level != "info" || entry.Category != "state" || entry.Message != "state DONE" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Time.IsZero() {
		t.Error("entry time not set")
	}
}

func TestLogger_LogErr(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.LogErr(LevelError, CategoryDSS, "verifying signature", errors.New("bad point"))
	if got := buf.String(); !strings.Contains(got, "verifying signature: bad point") {
		t.Errorf("log output = %q", got)
	}

	buf.Reset()
	l.LogErr(LevelError, CategoryDSS, "context", nil)
	if buf.Len() != 0 {
		t.Errorf("nil error emitted: %q", buf.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want LogLevel
	}{
		{"trace", LevelTrace},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"off", LevelNone},
		{"bogus", LevelDebug},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVerbosityToLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		verbosity int
		want      LogLevel
	}{
		{0, LevelNone},
		{1, LevelInfo},
		{2, LevelDebug},
		{3, LevelTrace},
		{9, LevelTrace},
	}
	for _, tt := range tests {
		if got := VerbosityToLevel(tt.verbosity); got != tt.want {
			t.Errorf("VerbosityToLevel(%d) = %v, want %v", tt.verbosity, got, tt.want)
		}
	}
}

//nolint:paralleltest // mutates viper state
func TestConfigureLogger(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("verbosity", 2)
	viper.Set("log.level", "error")
	viper.Set("log.json", true)
	viper.Set("log.categories", "dss, wifi")
	ConfigureLogger()

	if defaultLogger.min != LevelError {
		t.Errorf("level = %v, want error (log.level wins over -vv)", defaultLogger.min)
	}
	if !defaultLogger.jsonMode {
		t.Error("JSON mode not applied")
	}
	if !defaultLogger.only[CategoryDSS] || !defaultLogger.only[CategoryWifi] {
		t.Errorf("categories = %v", defaultLogger.only)
	}

	// Restore the package default for other tests.
	defaultLogger = NewLogger(defaultLogger.out)
}

//nolint:paralleltest // mutates viper state
func TestPackageLog_SilentWithoutVerbosity(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	var buf bytes.Buffer
	old := defaultLogger
	defaultLogger = NewLogger(&buf)
	defer func() { defaultLogger = old }()

	Log(LevelError, CategoryDSS, "hidden")
	if buf.Len() != 0 {
		t.Errorf("package Log emitted without verbosity: %q", buf.String())
	}

	viper.Set("verbosity", 1)
	Log(LevelError, CategoryDSS, "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("package Log silent at -v: %q", buf.String())
	}
}

func TestIOStreams_Logger(t *testing.T) {
	t.Parallel()

	var errOut bytes.Buffer
	s := Test(nil, &bytes.Buffer{}, &errOut)

	l := s.Logger()
	l.SetLevel(LevelDebug)
	l.Log(LevelInfo, CategoryConfig, "wired to stderr")

	if !strings.Contains(errOut.String(), "wired to stderr") {
		t.Errorf("errOut = %q", errOut.String())
	}
}
