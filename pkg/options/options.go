// Package options holds the option groups of docstore-boot and the helpers
// that read their values back from a resolved configuration namespace.
//
// Every group registers its flags under a dotted prefix that matches the
// property keys, so --docstore.username and docstore.username in a file
// name the same setting.
package options

import (
	"strings"

	"github.com/spf13/pflag"
)

// IOptions is implemented by every option group.
type IOptions interface {
	// Complete fills in defaults that depend on other fields.
	Complete() error

	// Validate returns every problem found, not just the first.
	Validate() []error

	// AddFlags registers the group's flags under the given prefixes.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// Join concatenates prefixes with "." and appends a trailing "." when the
// result is not empty: Join("a", "b") is "a.b.".
func Join(prefixes ...string) string {
	joined := strings.Join(prefixes, ".")
	if joined != "" {
		joined += "."
	}
	return joined
}

// CompleteAll completes each group in order and stops at the first error.
func CompleteAll(groups ...IOptions) error {
	for _, g := range groups {
		if err := g.Complete(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAll collects the validation errors of every group.
func ValidateAll(groups ...IOptions) []error {
	var errs []error
	for _, g := range groups {
		errs = append(errs, g.Validate()...)
	}
	return errs
}
