// Package autoconfig runs a startup pass over conditional component
// definitions.
//
// Each Definition names the component it produces, the type it registers
// as, the definitions it must run after and a condition. The Engine orders
// the definitions, evaluates every condition against the registration
// state left by the definitions before it, and calls the factory only when
// the condition matches:
//
//	engine := autoconfig.NewEngine(reg, docstore.Definitions()...)
//	report, err := engine.Run(ctx)
//	defer engine.Close(ctx)
//
// A definition whose condition does not match is skipped and never
// constructed. The Report lists every definition in execution order with
// the outcome of its condition.
package autoconfig

import (
	"context"

	"github.com/kart-io/docstore-boot/pkg/condition"
)

// Factory constructs a component. Collaborators are looked up through the
// resolver.
type Factory func(ctx context.Context, r *Resolver) (any, error)

// Definition describes one conditionally registered component.
type Definition struct {
	// Name is the component name and must be unique among definitions.
	Name string
	// Type is the type the component is registered as.
	Type string
	// Provides lists further types the component can be resolved as.
	Provides []string
	// DependsOn names definitions that must run first.
	DependsOn []string
	// Condition guards the definition. Nil always matches.
	Condition condition.Condition
	// Factory builds the component.
	Factory Factory
}

// Guard returns defs with guard added in front of each definition's own
// condition. It models a condition shared by a group of definitions.
func Guard(guard condition.Condition, defs ...Definition) []Definition {
	out := make([]Definition, len(defs))
	for i, d := range defs {
		if d.Condition == nil {
			d.Condition = guard
		} else {
			d.Condition = condition.All(guard, d.Condition)
		}
		out[i] = d
	}
	return out
}
