// Package registry holds the registration state of a startup pass: the types
// linked into the binary, the components registered so far and the resolved
// configuration namespace.
//
// The Registry is mutated only by the code driving startup. Conditions read
// an immutable State taken with Snapshot, so evaluating them never observes a
// registration made halfway through another evaluation.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	autoerrors "github.com/kart-io/docstore-boot/pkg/errors"
)

// Properties is the resolved configuration namespace. *viper.Viper
// satisfies it.
type Properties interface {
	IsSet(key string) bool
	Get(key string) interface{}
	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetDuration(key string) time.Duration
	GetStringSlice(key string) []string
}

// Component is a registered component together with the types it can be
// resolved as.
type Component struct {
	// Name is unique within a registry.
	Name string
	// Type is the declared type, e.g. "docstore.Cluster".
	Type string
	// Provides lists additional types the component is assignable to.
	Provides []string
	// Instance is the constructed value.
	Instance any

	seq int
}

// AssignableTo reports whether the component can be resolved as typ.
func (c *Component) AssignableTo(typ string) bool {
	if c.Type == typ {
		return true
	}
	for _, p := range c.Provides {
		if p == typ {
			return true
		}
	}
	return false
}

// Registry is the mutable registration state owned by the startup driver.
// It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	types      map[string]string
	components map[string]*Component
	seq        int
	props      Properties
}

// New creates a registry reading configuration from props. A nil props
// behaves as an empty namespace.
func New(props Properties) *Registry {
	if props == nil {
		props = emptyProperties{}
	}
	return &Registry{
		types:      make(map[string]string),
		components: make(map[string]*Component),
		props:      props,
	}
}

// AddType declares a type as available to the binary. version may be empty.
func (r *Registry) AddType(name, version string) error {
	if strings.TrimSpace(name) == "" {
		return autoerrors.NewConfigurationError("type name cannot be empty", "type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[name] = version
	return nil
}

// Register adds a component. The name must be unique.
func (r *Registry) Register(c Component) error {
	if c.Name == "" {
		return autoerrors.NewConfigurationError("component name cannot be empty", "name")
	}
	if c.Type == "" {
		return autoerrors.NewConfigurationError(fmt.Sprintf("component %q has no type", c.Name), "type")
	}
	if c.Instance == nil {
		return autoerrors.NewConfigurationError(fmt.Sprintf("component %q has a nil instance", c.Name), "instance")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.components[c.Name]; exists {
		return autoerrors.ErrComponentExists.WithMessagef("component '%s' is already registered", c.Name)
	}

	r.seq++
	c.seq = r.seq
	c.Provides = append([]string(nil), c.Provides...)
	r.components[c.Name] = &c
	return nil
}

// MustRegister registers a component and panics if registration fails.
func (r *Registry) MustRegister(c Component) {
	if err := r.Register(c); err != nil {
		panic(fmt.Sprintf("failed to register component: %v", err))
	}
}

// Get returns the component registered under name.
func (r *Registry) Get(name string) (*Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[name]
	return c, ok
}

// Components returns every registered component in registration order.
func (r *Registry) Components() []*Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.orderedLocked()
}

// Count returns the number of registered components.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.components)
}

// Properties returns the configuration namespace.
func (r *Registry) Properties() Properties {
	return r.props
}

// Snapshot returns an immutable view of the current state.
func (r *Registry) Snapshot() State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make(map[string]string, len(r.types))
	for k, v := range r.types {
		types[k] = v
	}

	ordered := r.orderedLocked()
	comps := make([]Component, 0, len(ordered))
	for _, c := range ordered {
		comps = append(comps, *c)
	}

	return &snapshot{
		types:      types,
		components: comps,
		props:      freeze(r.props),
	}
}

func (r *Registry) orderedLocked() []*Component {
	out := make([]*Component, 0, len(r.components))
	for _, c := range r.components {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

type emptyProperties struct{}

func (emptyProperties) IsSet(string) bool                { return false }
func (emptyProperties) Get(string) interface{}           { return nil }
func (emptyProperties) GetString(string) string          { return "" }
func (emptyProperties) GetBool(string) bool              { return false }
func (emptyProperties) GetInt(string) int                { return 0 }
func (emptyProperties) GetDuration(string) time.Duration { return 0 }
func (emptyProperties) GetStringSlice(string) []string   { return nil }
