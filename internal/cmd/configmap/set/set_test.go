package set

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ffs-wifi/provisionee/internal/cmdutil"
	ffsconfig "github.com/ffs-wifi/provisionee/internal/ffs/configmap"
	"github.com/ffs-wifi/provisionee/internal/iostreams"
)

func newFactory() (*cmdutil.Factory, *ffsconfig.Manager, *bytes.Buffer) {
	out := &bytes.Buffer{}
	ios := iostreams.Test(strings.NewReader(""), out, &bytes.Buffer{})
	cfg := ffsconfig.NewTestManager(nil)
	return cmdutil.NewTestFactory(ios, cfg), cfg, out
}

func TestRun_String(t *testing.T) {
	t.Parallel()

	f, cfg, _ := newFactory()
	if err := run(f, ffsconfig.KeyManufacturerName, "Amazon", "string"); err != nil {
		t.Fatal(err)
	}
	if got, err := cfg.GetString(ffsconfig.KeyManufacturerName); err != nil || got != "Amazon" {
		t.Errorf("stored = %q, %v", got, err)
	}
}

func TestRun_Integer(t *testing.T) {
	t.Parallel()

	f, cfg, _ := newFactory()
	if err := run(f, ffsconfig.KeyDSSPort, "8443", "integer"); err != nil {
		t.Fatal(err)
	}
	if got, err := cfg.GetInteger(ffsconfig.KeyDSSPort); err != nil || got != 8443 {
		t.Errorf("stored = %d, %v", got, err)
	}
}

func TestRun_Bytes(t *testing.T) {
	t.Parallel()

	f, cfg, _ := newFactory()
	if err := run(f, ffsconfig.KeyProductIndex, "Q2J0Tg==", "bytes"); err != nil {
		t.Fatal(err)
	}
	if got, err := cfg.GetBytes(ffsconfig.KeyProductIndex); err != nil || string(got) != "CbtN" {
		t.Errorf("stored = %q, %v", got, err)
	}
}

func TestRun_BadValues(t *testing.T) {
	t.Parallel()

	f, _, _ := newFactory()
	if err := run(f, ffsconfig.KeyDSSPort, "not-a-number", "integer"); err == nil {
		t.Error("bad integer should fail")
	}
	if err := run(f, ffsconfig.KeyProductIndex, "!!!", "bytes"); err == nil {
		t.Error("bad base64 should fail")
	}
	if err := run(f, "key", "value", "mystery"); err == nil {
		t.Error("unknown type should fail")
	}
}

func TestNewCommand(t *testing.T) {
	t.Parallel()

	f, _, _ := newFactory()
	cmd := NewCommand(f)
	if cmd.Use != "set <key> <value>" {
		t.Errorf("Use = %q", cmd.Use)
	}
	if cmd.Flags().Lookup("type") == nil {
		t.Error("missing --type flag")
	}
}
