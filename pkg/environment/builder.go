package environment

import (
	"math"
	"sort"
	"time"
)

// Overrides carries user-supplied values. A nil field is absent and keeps
// the baseline; a non-nil field replaces it, even when equal to it.
type Overrides struct {
	ConnectTimeout         *time.Duration
	DisconnectTimeout      *time.Duration
	KeyValueTimeout        *time.Duration
	KeyValueDurableTimeout *time.Duration
	QueryTimeout           *time.Duration
	ViewTimeout            *time.Duration
	SearchTimeout          *time.Duration
	AnalyticsTimeout       *time.Duration
	ManagementTimeout      *time.Duration

	MinConnections        *int
	MaxConnections        *int
	IdleConnectionTimeout *time.Duration

	TLSEnabled         *bool
	TrustStorePath     *string
	TrustStorePassword *string
}

// Ptr returns a pointer to v, for filling Overrides literals.
func Ptr[T any](v T) *T {
	return &v
}

func override[T any](dst *T, src *T, name string, explicit map[string]bool) {
	if src == nil {
		return
	}
	*dst = *src
	explicit[name] = true
}

func (o Overrides) applyTo(v *Values, explicit map[string]bool) {
	override(&v.Timeouts.Connect, o.ConnectTimeout, FieldConnectTimeout, explicit)
	override(&v.Timeouts.Disconnect, o.DisconnectTimeout, FieldDisconnectTimeout, explicit)
	override(&v.Timeouts.KeyValue, o.KeyValueTimeout, FieldKeyValueTimeout, explicit)
	override(&v.Timeouts.KeyValueDurable, o.KeyValueDurableTimeout, FieldKeyValueDurableTimeout, explicit)
	override(&v.Timeouts.Query, o.QueryTimeout, FieldQueryTimeout, explicit)
	override(&v.Timeouts.View, o.ViewTimeout, FieldViewTimeout, explicit)
	override(&v.Timeouts.Search, o.SearchTimeout, FieldSearchTimeout, explicit)
	override(&v.Timeouts.Analytics, o.AnalyticsTimeout, FieldAnalyticsTimeout, explicit)
	override(&v.Timeouts.Management, o.ManagementTimeout, FieldManagementTimeout, explicit)

	override(&v.IO.MinConnections, o.MinConnections, FieldMinConnections, explicit)
	override(&v.IO.MaxConnections, o.MaxConnections, FieldMaxConnections, explicit)
	override(&v.IO.IdleConnectionTimeout, o.IdleConnectionTimeout, FieldIdleConnectionTimeout, explicit)

	override(&v.TLS.Enabled, o.TLSEnabled, FieldTLSEnabled, explicit)
	override(&v.TLS.TrustStorePath, o.TrustStorePath, FieldTrustStorePath, explicit)
	override(&v.TLS.TrustStorePassword, o.TrustStorePassword, FieldTrustStorePassword, explicit)
}

// Builder is the in-progress environment handed to customizers. A field
// written directly through the embedded Values becomes explicit when its
// value changes; a field written through Apply becomes explicit even when
// the new value equals the old one.
type Builder struct {
	Values

	explicit map[string]bool
}

// Apply writes every field present in o and marks it explicit.
func (b *Builder) Apply(o Overrides) {
	if b.explicit == nil {
		b.explicit = make(map[string]bool)
	}
	o.applyTo(&b.Values, b.explicit)
}

// Customizer mutates the in-progress environment.
type Customizer interface {
	Customize(b *Builder)
}

// CustomizerFunc adapts a function to Customizer.
type CustomizerFunc func(b *Builder)

// Customize implements Customizer.
func (f CustomizerFunc) Customize(b *Builder) {
	f(b)
}

// Ordered is implemented by customizers that declare a priority. Lower
// values run first; customizers without one run last.
type Ordered interface {
	Order() int
}

// LowestPrecedence is the order of a customizer that declares none.
const LowestPrecedence = math.MaxInt32

type orderedCustomizer struct {
	order int
	fn    CustomizerFunc
}

func (c orderedCustomizer) Customize(b *Builder) { c.fn(b) }
func (c orderedCustomizer) Order() int          { return c.order }

// WithOrder wraps fn in a customizer with the given order.
func WithOrder(order int, fn CustomizerFunc) Customizer {
	return orderedCustomizer{order: order, fn: fn}
}

func orderOf(c Customizer) int {
	if o, ok := c.(Ordered); ok {
		return o.Order()
	}
	return LowestPrecedence
}

// SortCustomizers returns the chain in execution order: by Order, keeping
// the given order among equal priorities. The input is not modified.
func SortCustomizers(chain []Customizer) []Customizer {
	out := make([]Customizer, 0, len(chain))
	for _, c := range chain {
		if c != nil {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return orderOf(out[i]) < orderOf(out[j])
	})
	return out
}
