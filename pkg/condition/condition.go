// Package condition decides whether a guarded registration proceeds.
//
// A Condition is a declarative predicate over a registry.State. Evaluation is
// pure: it reads the state, never mutates it, and performs no I/O, so the
// order in which independent conditions are evaluated cannot change any
// single result.
//
//	guard := condition.All(
//	    condition.RequiresType("docstore.Cluster"),
//	    condition.RequiresProperty("docstore.connection-string"),
//	    condition.RequiresNoExistingComponent("docstore.Environment"),
//	)
//	ok, err := condition.Evaluate(guard, reg.Snapshot())
//
// A false result is the normal way of skipping a registration. An error is
// returned only for a malformed condition, such as an empty type name.
package condition

import (
	"fmt"

	"github.com/kart-io/docstore-boot/pkg/registry"
)

// Outcome is the diagnostic result of matching a condition.
type Outcome struct {
	Match   bool   `json:"match" yaml:"match"`
	Message string `json:"message" yaml:"message"`
}

func match(format string, args ...interface{}) Outcome {
	return Outcome{Match: true, Message: fmt.Sprintf(format, args...)}
}

func noMatch(format string, args ...interface{}) Outcome {
	return Outcome{Match: false, Message: fmt.Sprintf(format, args...)}
}

// Condition is a side-effect-free predicate over the registration state.
type Condition interface {
	// Validate reports a malformed condition. It does not look at any state.
	Validate() error
	// Match evaluates a validated condition.
	Match(s registry.State) Outcome
	// String describes the condition for reports.
	String() string
}

// Evaluate validates c and evaluates it against s.
func Evaluate(c Condition, s registry.State) (bool, error) {
	o, err := Explain(c, s)
	if err != nil {
		return false, err
	}
	return o.Match, nil
}

// Explain validates c and returns the full outcome, including which
// sub-condition decided it.
func Explain(c Condition, s registry.State) (Outcome, error) {
	if c == nil {
		return Outcome{}, malformed("condition", "condition cannot be nil")
	}
	if err := c.Validate(); err != nil {
		return Outcome{}, err
	}
	return c.Match(s), nil
}

// Always matches unconditionally. It is the guard of a definition that
// declares none.
func Always() Condition {
	return All()
}
