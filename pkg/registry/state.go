package registry

import "strings"

// State is a read-only view of the registration state at one point of the
// startup pass.
type State interface {
	// HasType reports whether the type is available to the binary.
	HasType(name string) bool
	// TypeVersion returns the declared version of a known type.
	TypeVersion(name string) (string, bool)
	// HasComponent reports whether a component is registered under name.
	HasComponent(name string) bool
	// Candidates returns, in registration order, the names of the components
	// assignable to typ.
	Candidates(typ string) []string
	// Property returns the string form of a configuration value.
	Property(key string) (string, bool)
}

type snapshot struct {
	types      map[string]string
	components []Component
	props      *frozenProperties
}

func (s *snapshot) HasType(name string) bool {
	_, ok := s.types[name]
	return ok
}

func (s *snapshot) TypeVersion(name string) (string, bool) {
	v, ok := s.types[name]
	return v, ok
}

func (s *snapshot) HasComponent(name string) bool {
	for i := range s.components {
		if s.components[i].Name == name {
			return true
		}
	}
	return false
}

func (s *snapshot) Candidates(typ string) []string {
	var names []string
	for i := range s.components {
		if s.components[i].AssignableTo(typ) {
			names = append(names, s.components[i].Name)
		}
	}
	return names
}

func (s *snapshot) Property(key string) (string, bool) {
	return s.props.lookup(key)
}

// keyLister is implemented by namespaces that can enumerate their keys, such
// as *viper.Viper.
type keyLister interface {
	AllKeys() []string
}

// frozenProperties holds the values of every listed key as of the snapshot.
// Keys the namespace cannot list, such as environment-only ones, are read
// from the live namespace.
type frozenProperties struct {
	known  map[string]bool
	values map[string]string
	live   Properties
}

func freeze(p Properties) *frozenProperties {
	f := &frozenProperties{
		known:  make(map[string]bool),
		values: make(map[string]string),
		live:   p,
	}
	lister, ok := p.(keyLister)
	if !ok {
		return f
	}
	for _, key := range lister.AllKeys() {
		key = strings.ToLower(key)
		f.known[key] = true
		if p.IsSet(key) {
			f.values[key] = p.GetString(key)
		}
	}
	return f
}

func (f *frozenProperties) lookup(key string) (string, bool) {
	key = strings.ToLower(key)
	if f.known[key] {
		v, ok := f.values[key]
		return v, ok
	}
	if !f.live.IsSet(key) {
		return "", false
	}
	return f.live.GetString(key), true
}
