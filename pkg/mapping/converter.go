package mapping

import (
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"

	autoerrors "github.com/kart-io/docstore-boot/pkg/errors"
)

// Converter turns entities into documents and back using the metadata of a
// Context. Unknown entity types are registered on first use with a derived
// collection name.
type Converter struct {
	mapping *Context
}

// NewConverter creates a converter over ctx.
func NewConverter(ctx *Context) *Converter {
	return &Converter{mapping: ctx}
}

// Context returns the mapping context.
func (c *Converter) Context() *Context {
	return c.mapping
}

func (c *Converter) entity(v any) (*Entity, error) {
	if e, ok := c.mapping.Entity(v); ok {
		return e, nil
	}
	return c.mapping.Register(v, "")
}

// Collection returns the collection the entity is stored in.
func (c *Converter) Collection(v any) (string, error) {
	e, err := c.entity(v)
	if err != nil {
		return "", err
	}
	return e.Collection, nil
}

// Write returns the document for entity. The type key comes first and holds
// the entity alias.
func (c *Converter) Write(entity any) (bson.D, error) {
	e, err := c.entity(entity)
	if err != nil {
		return nil, err
	}

	rv := reflect.ValueOf(entity)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, autoerrors.NewConfigurationError("entity cannot be a nil pointer", "entity")
		}
		rv = rv.Elem()
	}

	doc := make(bson.D, 0, len(e.Fields)+1)
	doc = append(doc, bson.E{Key: c.mapping.TypeKey(), Value: e.Alias})
	for _, f := range e.Fields {
		fv := rv.Field(f.Index)
		if f.OmitEmpty && fv.IsZero() {
			continue
		}
		doc = append(doc, bson.E{Key: f.Name, Value: fv.Interface()})
	}
	return doc, nil
}

// Read decodes doc into out, a pointer to a struct. A type key naming a
// different entity is an error; a missing type key is accepted. Document
// fields without a matching struct field are ignored.
func (c *Converter) Read(doc bson.Raw, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return autoerrors.NewConfigurationError(fmt.Sprintf("cannot read into %T", out), "entity")
	}

	e, err := c.entity(out)
	if err != nil {
		return err
	}

	if alias, ok := doc.Lookup(c.mapping.TypeKey()).StringValueOK(); ok && alias != e.Alias {
		return autoerrors.ErrInternal.WithMessagef(
			"document holds a %s, cannot read it into %s", alias, e.Type)
	}

	elems, err := doc.Elements()
	if err != nil {
		return autoerrors.ErrInternal.WithMessage("malformed document").WithCause(err)
	}

	target := rv.Elem()
	for _, el := range elems {
		key := el.Key()
		if key == c.mapping.TypeKey() {
			continue
		}
		f, ok := e.field(key)
		if !ok {
			continue
		}
		if err := el.Value().Unmarshal(target.Field(f.Index).Addr().Interface()); err != nil {
			return autoerrors.ErrInternal.WithMessagef("cannot decode field %s of %s", key, e.Type).WithCause(err)
		}
	}
	return nil
}
