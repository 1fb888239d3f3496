// Package mapping keeps the object mapping metadata of the document store:
// which Go types are persisted, in which collection, under which alias and
// with which document field names.
package mapping

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	autoerrors "github.com/kart-io/docstore-boot/pkg/errors"
)

// DefaultTypeKey is the document field holding the entity alias.
const DefaultTypeKey = "_class"

// NamingStrategy derives document field names from Go field names.
type NamingStrategy string

// Supported naming strategies.
const (
	CamelCase NamingStrategy = "camel"
	SnakeCase NamingStrategy = "snake"
)

// FieldName converts a Go field name.
func (n NamingStrategy) FieldName(goName string) string {
	switch n {
	case SnakeCase:
		return toSnake(goName)
	default:
		return toCamel(goName)
	}
}

func (n NamingStrategy) valid() bool {
	return n == CamelCase || n == SnakeCase
}

// Aliased is implemented by entities that choose their own alias.
type Aliased interface {
	TypeAlias() string
}

// EntityDefinition declares a persistent entity and its collection. An
// empty Collection is derived from the type name.
type EntityDefinition struct {
	Entity     any
	Collection string
}

// Config configures a Context.
type Config struct {
	TypeKey   string
	Naming    NamingStrategy
	AutoIndex bool
}

// Context is the set of known persistent entities. It is safe for
// concurrent use.
type Context struct {
	typeKey   string
	naming    NamingStrategy
	autoIndex bool

	mu      sync.RWMutex
	byType  map[reflect.Type]*Entity
	byAlias map[string]*Entity
	order   []*Entity
}

// NewContext creates an empty mapping context. An empty type key or naming
// strategy falls back to the defaults.
func NewContext(cfg Config) (*Context, error) {
	if cfg.TypeKey == "" {
		cfg.TypeKey = DefaultTypeKey
	}
	if cfg.Naming == "" {
		cfg.Naming = CamelCase
	}
	if !cfg.Naming.valid() {
		return nil, autoerrors.NewConfigurationError(
			fmt.Sprintf("unknown field naming strategy %q", cfg.Naming), "field-naming-strategy")
	}

	return &Context{
		typeKey:   cfg.TypeKey,
		naming:    cfg.Naming,
		autoIndex: cfg.AutoIndex,
		byType:    make(map[reflect.Type]*Entity),
		byAlias:   make(map[string]*Entity),
	}, nil
}

// TypeKey returns the document field holding the entity alias.
func (c *Context) TypeKey() string { return c.typeKey }

// Naming returns the field naming strategy.
func (c *Context) Naming() NamingStrategy { return c.naming }

// AutoIndex reports whether indexes should be created on startup.
func (c *Context) AutoIndex() bool { return c.autoIndex }

// Register adds the type of entity, a struct or pointer to struct, persisted
// in collection. An empty collection derives one from the type name.
// Registering the same type again with the same collection is a no-op.
func (c *Context) Register(entity any, collection string) (*Entity, error) {
	t, err := structType(entity)
	if err != nil {
		return nil, err
	}
	if collection == "" {
		collection = c.naming.FieldName(t.Name())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.byType[t]; ok {
		if existing.Collection != collection {
			return nil, autoerrors.NewConfigurationError(fmt.Sprintf(
				"%s is already mapped to collection %q", t, existing.Collection), "collection")
		}
		return existing, nil
	}

	e := c.describe(t, entity, collection)
	if other, ok := c.byAlias[e.Alias]; ok {
		return nil, autoerrors.NewConfigurationError(fmt.Sprintf(
			"alias %q is used by both %s and %s", e.Alias, other.Type, t), "alias")
	}

	c.byType[t] = e
	c.byAlias[e.Alias] = e
	c.order = append(c.order, e)
	return e, nil
}

// Entity returns the metadata of a registered entity type.
func (c *Context) Entity(v any) (*Entity, bool) {
	t, err := structType(v)
	if err != nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byType[t]
	return e, ok
}

// ByAlias returns the entity registered under alias.
func (c *Context) ByAlias(alias string) (*Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byAlias[alias]
	return e, ok
}

// Entities returns the registered entities in registration order.
func (c *Context) Entities() []*Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Entity(nil), c.order...)
}

// Entity is the mapping metadata of one Go type.
type Entity struct {
	Type       reflect.Type
	Alias      string
	Collection string
	Fields     []Field
}

// Field maps one exported struct field to a document field.
type Field struct {
	GoName    string
	Name      string
	Index     int
	OmitEmpty bool
	Indexed   bool
	Unique    bool
}

func (e *Entity) field(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// describe reads field names from `bson` tags and index hints from
// `docstore:"index"` or `docstore:"unique"` tags.
func (c *Context) describe(t reflect.Type, entity any, collection string) *Entity {
	alias := t.PkgPath() + "." + t.Name()
	if a, ok := entity.(Aliased); ok && a.TypeAlias() != "" {
		alias = a.TypeAlias()
	}

	e := &Entity{Type: t, Alias: alias, Collection: collection}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		f := Field{GoName: sf.Name, Name: c.naming.FieldName(sf.Name), Index: i}
		if tag, ok := sf.Tag.Lookup("bson"); ok {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				f.Name = parts[0]
			}
			for _, opt := range parts[1:] {
				if opt == "omitempty" {
					f.OmitEmpty = true
				}
			}
		}
		switch sf.Tag.Get("docstore") {
		case "index":
			f.Indexed = true
		case "unique":
			f.Indexed, f.Unique = true, true
		}
		e.Fields = append(e.Fields, f)
	}
	return e
}

func structType(v any) (reflect.Type, error) {
	if v == nil {
		return nil, autoerrors.NewConfigurationError("entity cannot be nil", "entity")
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, autoerrors.NewConfigurationError(fmt.Sprintf("%s is not a struct", t), "entity")
	}
	return t, nil
}

func toCamel(s string) string {
	r := []rune(s)
	for i := range r {
		if !unicode.IsUpper(r[i]) {
			break
		}
		// Keep the last capital of an acronym when a lower-case letter follows.
		if i > 0 && i+1 < len(r) && unicode.IsLower(r[i+1]) {
			break
		}
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}

func toSnake(s string) string {
	r := []rune(s)
	var b strings.Builder
	for i, ch := range r {
		if unicode.IsUpper(ch) {
			if i > 0 && (unicode.IsLower(r[i-1]) || (i+1 < len(r) && unicode.IsLower(r[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(ch))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
