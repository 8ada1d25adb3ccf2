package list

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ffs-wifi/provisionee/internal/cmdutil"
	ffsconfig "github.com/ffs-wifi/provisionee/internal/ffs/configmap"
	"github.com/ffs-wifi/provisionee/internal/iostreams"
)

func TestRun(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	ios := iostreams.Test(strings.NewReader(""), out, &bytes.Buffer{})
	cfg := ffsconfig.NewTestManager(map[string]ffsconfig.Value{
		ffsconfig.KeyDSSHost:      ffsconfig.StringValue("dp-sps-na.amazon.com"),
		ffsconfig.KeyCountryCode:  ffsconfig.StringValue("US"),
		ffsconfig.KeyProductIndex: ffsconfig.BytesValue([]byte("CbtN")),
	})
	f := cmdutil.NewTestFactory(ios, cfg)

	if err := run(f); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	for _, want := range []string{ffsconfig.KeyDSSHost, ffsconfig.KeyCountryCode, "bytes(4)"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRun_Empty(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	ios := iostreams.Test(strings.NewReader(""), out, &bytes.Buffer{})
	f := cmdutil.NewTestFactory(ios, ffsconfig.NewTestManager(nil))

	if err := run(f); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); !strings.Contains(got, "empty") {
		t.Errorf("output = %q", got)
	}
}
