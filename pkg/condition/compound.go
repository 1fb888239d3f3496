package condition

import (
	"fmt"
	"strings"

	"github.com/kart-io/docstore-boot/pkg/registry"
)

// All matches when every condition matches. All() matches.
func All(conds ...Condition) Condition {
	return all{conds: conds}
}

// Any matches when at least one condition matches. Any() does not match.
func Any(conds ...Condition) Condition {
	return anyOf{conds: conds}
}

// Not inverts a condition.
func Not(c Condition) Condition {
	return not{cond: c}
}

func validateEach(kind string, conds []Condition) error {
	for i, c := range conds {
		if c == nil {
			return malformed(fmt.Sprintf("%s[%d]", kind, i), "condition cannot be nil")
		}
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func describe(kind string, conds []Condition) string {
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		parts = append(parts, c.String())
	}
	return fmt.Sprintf("%s(%s)", kind, strings.Join(parts, ", "))
}

type all struct {
	conds []Condition
}

func (c all) Validate() error {
	return validateEach("All", c.conds)
}

func (c all) Match(s registry.State) Outcome {
	if len(c.conds) == 0 {
		return match("no conditions")
	}
	messages := make([]string, 0, len(c.conds))
	for _, sub := range c.conds {
		o := sub.Match(s)
		if !o.Match {
			return noMatch("%s", o.Message)
		}
		messages = append(messages, o.Message)
	}
	return match("%s", strings.Join(messages, "; "))
}

func (c all) String() string {
	return describe("All", c.conds)
}

type anyOf struct {
	conds []Condition
}

func (c anyOf) Validate() error {
	return validateEach("Any", c.conds)
}

func (c anyOf) Match(s registry.State) Outcome {
	if len(c.conds) == 0 {
		return noMatch("no conditions")
	}
	messages := make([]string, 0, len(c.conds))
	for _, sub := range c.conds {
		o := sub.Match(s)
		if o.Match {
			return match("%s", o.Message)
		}
		messages = append(messages, o.Message)
	}
	return noMatch("%s", strings.Join(messages, "; "))
}

func (c anyOf) String() string {
	return describe("Any", c.conds)
}

type not struct {
	cond Condition
}

func (c not) Validate() error {
	if c.cond == nil {
		return malformed("Not", "condition cannot be nil")
	}
	return c.cond.Validate()
}

func (c not) Match(s registry.State) Outcome {
	o := c.cond.Match(s)
	return Outcome{Match: !o.Match, Message: "not: " + o.Message}
}

func (c not) String() string {
	return fmt.Sprintf("Not(%s)", c.cond)
}
