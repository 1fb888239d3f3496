package condition

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	autoerrors "github.com/kart-io/docstore-boot/pkg/errors"
	"github.com/kart-io/docstore-boot/pkg/registry"
)

func malformed(field, reason string) error {
	return autoerrors.NewConfigurationError(reason, field)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// RequiresType matches when the named type is available to the binary.
func RequiresType(name string) Condition {
	return requiresType{name: name}
}

type requiresType struct {
	name string
}

func (c requiresType) Validate() error {
	if blank(c.name) {
		return malformed("type", "RequiresType needs a type name")
	}
	return nil
}

func (c requiresType) Match(s registry.State) Outcome {
	if s.HasType(c.name) {
		return match("found type '%s'", c.name)
	}
	return noMatch("did not find type '%s'", c.name)
}

func (c requiresType) String() string {
	return fmt.Sprintf("RequiresType(%s)", c.name)
}

// RequiresTypeVersion matches when the named type is available and its
// declared version satisfies the semver constraint, e.g. ">= 1.17, < 2".
func RequiresTypeVersion(name, constraint string) Condition {
	return requiresTypeVersion{name: name, constraint: constraint}
}

type requiresTypeVersion struct {
	name       string
	constraint string
}

func (c requiresTypeVersion) Validate() error {
	if blank(c.name) {
		return malformed("type", "RequiresTypeVersion needs a type name")
	}
	if _, err := semver.NewConstraint(c.constraint); err != nil {
		return malformed("constraint", fmt.Sprintf("invalid version constraint %q: %v", c.constraint, err))
	}
	return nil
}

func (c requiresTypeVersion) Match(s registry.State) Outcome {
	raw, ok := s.TypeVersion(c.name)
	if !ok {
		return noMatch("did not find type '%s'", c.name)
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return noMatch("type '%s' has no usable version (%q)", c.name, raw)
	}
	constraint, _ := semver.NewConstraint(c.constraint)
	if !constraint.Check(v) {
		return noMatch("type '%s' version %s does not satisfy %s", c.name, v, c.constraint)
	}
	return match("type '%s' version %s satisfies %s", c.name, v, c.constraint)
}

func (c requiresTypeVersion) String() string {
	return fmt.Sprintf("RequiresTypeVersion(%s %s)", c.name, c.constraint)
}

// RequiresNoExistingComponent matches when no registered component is
// assignable to typ.
func RequiresNoExistingComponent(typ string) Condition {
	return requiresNoExisting{typ: typ}
}

type requiresNoExisting struct {
	typ string
}

func (c requiresNoExisting) Validate() error {
	if blank(c.typ) {
		return malformed("type", "RequiresNoExistingComponent needs a type name")
	}
	return nil
}

func (c requiresNoExisting) Match(s registry.State) Outcome {
	if names := s.Candidates(c.typ); len(names) > 0 {
		return noMatch("found components of type '%s': %s", c.typ, strings.Join(names, ", "))
	}
	return match("did not find any components of type '%s'", c.typ)
}

func (c requiresNoExisting) String() string {
	return fmt.Sprintf("RequiresNoExistingComponent(%s)", c.typ)
}

// RequiresComponent matches when at least one registered component is
// assignable to typ.
func RequiresComponent(typ string) Condition {
	return requiresComponent{typ: typ}
}

type requiresComponent struct {
	typ string
}

func (c requiresComponent) Validate() error {
	if blank(c.typ) {
		return malformed("type", "RequiresComponent needs a type name")
	}
	return nil
}

func (c requiresComponent) Match(s registry.State) Outcome {
	if names := s.Candidates(c.typ); len(names) > 0 {
		return match("found components of type '%s': %s", c.typ, strings.Join(names, ", "))
	}
	return noMatch("did not find any components of type '%s'", c.typ)
}

func (c requiresComponent) String() string {
	return fmt.Sprintf("RequiresComponent(%s)", c.typ)
}

// RequiresSingleCandidate matches when exactly one registered component is
// assignable to typ. Zero and several candidates are both a non-match; the
// outcome message tells them apart.
func RequiresSingleCandidate(typ string) Condition {
	return requiresSingle{typ: typ}
}

type requiresSingle struct {
	typ string
}

func (c requiresSingle) Validate() error {
	if blank(c.typ) {
		return malformed("type", "RequiresSingleCandidate needs a type name")
	}
	return nil
}

func (c requiresSingle) Match(s registry.State) Outcome {
	names := s.Candidates(c.typ)
	switch len(names) {
	case 0:
		return noMatch("did not find any components of type '%s'", c.typ)
	case 1:
		return match("found a single component '%s' of type '%s'", names[0], c.typ)
	default:
		return noMatch("expected a single component of type '%s' but found %d: %s",
			c.typ, len(names), strings.Join(names, ", "))
	}
}

func (c requiresSingle) String() string {
	return fmt.Sprintf("RequiresSingleCandidate(%s)", c.typ)
}

// RequiresNoComponentNamed matches when nothing is registered under name.
func RequiresNoComponentNamed(name string) Condition {
	return requiresNoNamed{name: name}
}

type requiresNoNamed struct {
	name string
}

func (c requiresNoNamed) Validate() error {
	if blank(c.name) {
		return malformed("name", "RequiresNoComponentNamed needs a component name")
	}
	return nil
}

func (c requiresNoNamed) Match(s registry.State) Outcome {
	if s.HasComponent(c.name) {
		return noMatch("found component named '%s'", c.name)
	}
	return match("did not find component named '%s'", c.name)
}

func (c requiresNoNamed) String() string {
	return fmt.Sprintf("RequiresNoComponentNamed(%s)", c.name)
}
