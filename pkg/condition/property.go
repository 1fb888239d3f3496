package condition

import (
	"fmt"
	"strings"

	"github.com/kart-io/docstore-boot/pkg/registry"
)

// RequiresProperty matches when key is present in the configuration
// namespace. With an expected value it also requires the value to equal it,
// ignoring case.
func RequiresProperty(key string, expected ...string) Condition {
	c := requiresProperty{key: key}
	if len(expected) > 0 {
		c.expected = &expected[0]
		c.extra = len(expected) - 1
	}
	return c
}

type requiresProperty struct {
	key      string
	expected *string
	extra    int
}

func (c requiresProperty) Validate() error {
	if blank(c.key) {
		return malformed("key", "RequiresProperty needs a property key")
	}
	if c.extra > 0 {
		return malformed(c.key, "RequiresProperty takes at most one expected value")
	}
	return nil
}

func (c requiresProperty) Match(s registry.State) Outcome {
	v, ok := s.Property(c.key)
	if !ok {
		return noMatch("did not find property '%s'", c.key)
	}
	if c.expected == nil {
		return match("found property '%s'", c.key)
	}
	if !strings.EqualFold(strings.TrimSpace(v), *c.expected) {
		return noMatch("property '%s' is '%s', expected '%s'", c.key, v, *c.expected)
	}
	return match("property '%s' has expected value '%s'", c.key, *c.expected)
}

func (c requiresProperty) String() string {
	if c.expected == nil {
		return fmt.Sprintf("RequiresProperty(%s)", c.key)
	}
	return fmt.Sprintf("RequiresProperty(%s=%s)", c.key, *c.expected)
}

// RequiresPropertyEnabled matches when key is present and not "false". When
// the key is absent the result is matchIfMissing.
func RequiresPropertyEnabled(key string, matchIfMissing bool) Condition {
	return requiresEnabled{key: key, matchIfMissing: matchIfMissing}
}

type requiresEnabled struct {
	key            string
	matchIfMissing bool
}

func (c requiresEnabled) Validate() error {
	if blank(c.key) {
		return malformed("key", "RequiresPropertyEnabled needs a property key")
	}
	return nil
}

func (c requiresEnabled) Match(s registry.State) Outcome {
	v, ok := s.Property(c.key)
	if !ok {
		if c.matchIfMissing {
			return match("property '%s' is missing and defaults to enabled", c.key)
		}
		return noMatch("did not find property '%s'", c.key)
	}
	if strings.EqualFold(strings.TrimSpace(v), "false") {
		return noMatch("property '%s' is false", c.key)
	}
	return match("property '%s' is enabled", c.key)
}

func (c requiresEnabled) String() string {
	return fmt.Sprintf("RequiresPropertyEnabled(%s)", c.key)
}
