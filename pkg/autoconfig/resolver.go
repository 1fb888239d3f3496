package autoconfig

import (
	"fmt"

	autoerrors "github.com/kart-io/docstore-boot/pkg/errors"
	"github.com/kart-io/docstore-boot/pkg/registry"
)

// Resolver looks up the collaborators of the component being constructed.
type Resolver struct {
	reg       *registry.Registry
	component string
}

func newResolver(reg *registry.Registry, component string) *Resolver {
	return &Resolver{reg: reg, component: component}
}

// Component returns the name of the component being constructed.
func (r *Resolver) Component() string {
	return r.component
}

// Properties returns the configuration namespace.
func (r *Resolver) Properties() registry.Properties {
	return r.reg.Properties()
}

// Get returns the single component assignable to typ. It fails with an
// *errors.UnresolvedDependencyError when there is none or more than one.
func (r *Resolver) Get(typ string) (any, error) {
	candidates := r.reg.Snapshot().Candidates(typ)
	if len(candidates) != 1 {
		return nil, &autoerrors.UnresolvedDependencyError{
			Component:  r.component,
			Type:       typ,
			Candidates: candidates,
		}
	}
	c, _ := r.reg.Get(candidates[0])
	return c.Instance, nil
}

// Optional is like Get but reports false instead of failing when no
// component is assignable to typ. Several candidates still fail.
func (r *Resolver) Optional(typ string) (any, bool, error) {
	candidates := r.reg.Snapshot().Candidates(typ)
	if len(candidates) == 0 {
		return nil, false, nil
	}
	v, err := r.Get(typ)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// All returns every component assignable to typ in registration order.
func (r *Resolver) All(typ string) []any {
	var out []any
	for _, name := range r.reg.Snapshot().Candidates(typ) {
		if c, ok := r.reg.Get(name); ok {
			out = append(out, c.Instance)
		}
	}
	return out
}

// GetAs resolves typ and asserts the instance to T.
func GetAs[T any](r *Resolver, typ string) (T, error) {
	var zero T
	v, err := r.Get(typ)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, autoerrors.ErrInternal.WithMessagef(
			"component %q: %s resolved to %T, not %T", r.component, typ, v, zero)
	}
	return t, nil
}

// AllAs returns the components assignable to typ that are a T, in
// registration order.
func AllAs[T any](r *Resolver, typ string) []T {
	var out []T
	for _, v := range r.All(typ) {
		if t, ok := v.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

func (r *Resolver) String() string {
	return fmt.Sprintf("Resolver{component=%s}", r.component)
}
