// Package environment assembles the immutable client environment of the
// document store: timeouts, connection pool sizing and TLS material.
//
// Build merges, in this fixed order, a fully populated baseline, the fields
// explicitly present in an Overrides value, and an ordered chain of
// customizers, then validates the result once:
//
//	settings, err := environment.Build(environment.Defaults(), overrides, customizers...)
//
// Settings records which fields were set explicitly (by an override or by a
// customizer), so a field pinned to its default value can still be told
// apart from one that was never touched.
package environment

import (
	"fmt"
	"time"

	"github.com/kart-io/docstore-boot/pkg/utils/json"
)

// Field names, as used in validation errors and provenance queries.
const (
	FieldConnectTimeout         = "connectTimeout"
	FieldDisconnectTimeout      = "disconnectTimeout"
	FieldKeyValueTimeout        = "keyValueTimeout"
	FieldKeyValueDurableTimeout = "keyValueDurableTimeout"
	FieldQueryTimeout           = "queryTimeout"
	FieldViewTimeout            = "viewTimeout"
	FieldSearchTimeout          = "searchTimeout"
	FieldAnalyticsTimeout       = "analyticsTimeout"
	FieldManagementTimeout      = "managementTimeout"
	FieldMinConnections         = "minConnections"
	FieldMaxConnections         = "maxConnections"
	FieldIdleConnectionTimeout  = "idleConnectionTimeout"
	FieldTLSEnabled             = "tlsEnabled"
	FieldTrustStorePath         = "trustStorePath"
	FieldTrustStorePassword     = "trustStorePassword"
)

// redactedPassword is the placeholder used when serializing passwords.
const redactedPassword = "[REDACTED]"

// Timeouts are the per-operation timeouts of the client.
type Timeouts struct {
	Connect         time.Duration `json:"connectTimeout" validate:"gte=0s"`
	Disconnect      time.Duration `json:"disconnectTimeout" validate:"gte=0s"`
	KeyValue        time.Duration `json:"keyValueTimeout" validate:"gte=0s"`
	KeyValueDurable time.Duration `json:"keyValueDurableTimeout" validate:"gte=0s"`
	Query           time.Duration `json:"queryTimeout" validate:"gte=0s"`
	View            time.Duration `json:"viewTimeout" validate:"gte=0s"`
	Search          time.Duration `json:"searchTimeout" validate:"gte=0s"`
	Analytics       time.Duration `json:"analyticsTimeout" validate:"gte=0s"`
	Management      time.Duration `json:"managementTimeout" validate:"gte=0s"`
}

// IO is the connection pool sizing.
type IO struct {
	MinConnections        int           `json:"minConnections" validate:"gt=0"`
	MaxConnections        int           `json:"maxConnections" validate:"gt=0"`
	IdleConnectionTimeout time.Duration `json:"idleConnectionTimeout" validate:"gte=0s"`
}

// TLS references the trust material used to secure connections. Loading it
// is the client's job.
type TLS struct {
	Enabled            bool   `json:"tlsEnabled"`
	TrustStorePath     string `json:"trustStorePath" validate:"required_if=Enabled true"`
	TrustStorePassword string `json:"trustStorePassword"`
}

// Values is the plain, copyable content of Settings.
type Values struct {
	Timeouts Timeouts `json:"timeouts"`
	IO       IO       `json:"io"`
	TLS      TLS      `json:"tls"`
}

// Settings is the frozen client environment. The zero value is not valid;
// obtain one from Defaults or Build.
type Settings struct {
	values   Values
	explicit map[string]bool
}

// Defaults returns the hard-coded baseline. Every field has a value.
func Defaults() Settings {
	return Settings{
		values: Values{
			Timeouts: Timeouts{
				Connect:         10 * time.Second,
				Disconnect:      10 * time.Second,
				KeyValue:        2500 * time.Millisecond,
				KeyValueDurable: 10 * time.Second,
				Query:           75 * time.Second,
				View:            75 * time.Second,
				Search:          75 * time.Second,
				Analytics:       75 * time.Second,
				Management:      75 * time.Second,
			},
			IO: IO{
				MinConnections:        1,
				MaxConnections:        12,
				IdleConnectionTimeout: 4500 * time.Millisecond,
			},
		},
	}
}

// Values returns a copy of the settings content.
func (s Settings) Values() Values {
	return s.values
}

// Timeouts returns the operation timeouts.
func (s Settings) Timeouts() Timeouts {
	return s.values.Timeouts
}

// IO returns the connection pool sizing.
func (s Settings) IO() IO {
	return s.values.IO
}

// TLS returns the TLS material reference.
func (s Settings) TLS() TLS {
	return s.values.TLS
}

// Explicit reports whether field was set by an override or a customizer,
// even to its default value.
func (s Settings) Explicit(field string) bool {
	return s.explicit[field]
}

// ExplicitFields lists the explicitly set fields in declaration order.
func (s Settings) ExplicitFields() []string {
	var out []string
	for _, f := range fieldTable {
		if s.explicit[f.name] {
			out = append(out, f.name)
		}
	}
	return out
}

// IsZero reports whether s was never built.
func (s Settings) IsZero() bool {
	return s.values == Values{}
}

type settingsForJSON struct {
	Values
	Explicit []string `json:"explicit,omitempty"`
}

// MarshalJSON implements json.Marshaler with password redaction.
func (s Settings) MarshalJSON() ([]byte, error) {
	v := s.values
	if v.TLS.TrustStorePassword != "" {
		v.TLS.TrustStorePassword = redactedPassword
	}
	return json.Marshal(settingsForJSON{Values: v, Explicit: s.ExplicitFields()})
}

// String returns a summary safe for logging.
func (s Settings) String() string {
	t := s.values.Timeouts
	io := s.values.IO
	return fmt.Sprintf("Environment{connect=%s, kv=%s, query=%s, pool=%d..%d, idle=%s, tls=%t}",
		t.Connect, t.KeyValue, t.Query, io.MinConnections, io.MaxConnections,
		io.IdleConnectionTimeout, s.values.TLS.Enabled)
}

// field describes one settings field for provenance tracking.
type field struct {
	name string
	get  func(v *Values) interface{}
}

var fieldTable = []field{
	{FieldConnectTimeout, func(v *Values) interface{} { return v.Timeouts.Connect }},
	{FieldDisconnectTimeout, func(v *Values) interface{} { return v.Timeouts.Disconnect }},
	{FieldKeyValueTimeout, func(v *Values) interface{} { return v.Timeouts.KeyValue }},
	{FieldKeyValueDurableTimeout, func(v *Values) interface{} { return v.Timeouts.KeyValueDurable }},
	{FieldQueryTimeout, func(v *Values) interface{} { return v.Timeouts.Query }},
	{FieldViewTimeout, func(v *Values) interface{} { return v.Timeouts.View }},
	{FieldSearchTimeout, func(v *Values) interface{} { return v.Timeouts.Search }},
	{FieldAnalyticsTimeout, func(v *Values) interface{} { return v.Timeouts.Analytics }},
	{FieldManagementTimeout, func(v *Values) interface{} { return v.Timeouts.Management }},
	{FieldMinConnections, func(v *Values) interface{} { return v.IO.MinConnections }},
	{FieldMaxConnections, func(v *Values) interface{} { return v.IO.MaxConnections }},
	{FieldIdleConnectionTimeout, func(v *Values) interface{} { return v.IO.IdleConnectionTimeout }},
	{FieldTLSEnabled, func(v *Values) interface{} { return v.TLS.Enabled }},
	{FieldTrustStorePath, func(v *Values) interface{} { return v.TLS.TrustStorePath }},
	{FieldTrustStorePassword, func(v *Values) interface{} { return v.TLS.TrustStorePassword }},
}
