package cmdutil

import (
	"fmt"

	"github.com/spf13/pflag"
)

// keyFormats are the accepted values of the --*-format flags.
var keyFormats = []string{"pem", "der"}

// AddKeyFormatFlag registers a key-format flag with pem/der validation
// deferred to parse time via a pflag.Value.
func AddKeyFormatFlag(fs *pflag.FlagSet, p *string, name, usage string) {
	*p = "pem"
	fs.Var(&keyFormatValue{target: p}, name, usage)
}

// keyFormatValue is a pflag.Value restricted to the key formats.
type keyFormatValue struct {
	target *string
}

func (v *keyFormatValue) String() string {
	if v.target == nil {
		return ""
	}
	return *v.target
}

func (v *keyFormatValue) Set(s string) error {
	for _, format := range keyFormats {
		if s == format {
			*v.target = s
			return nil
		}
	}
	return fmt.Errorf("must be one of %v", keyFormats)
}

func (v *keyFormatValue) Type() string {
	return "format"
}
