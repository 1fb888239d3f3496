// Package docstore provides the document store connection options and reads
// the client environment overrides from the configuration namespace.
package docstore

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/docstore-boot/pkg/environment"
	"github.com/kart-io/docstore-boot/pkg/options"
	"github.com/kart-io/docstore-boot/pkg/utils/json"
)

var _ options.IOptions = (*Options)(nil)

// redactedPassword is the placeholder used when serializing passwords.
const redactedPassword = "[REDACTED]"

// Namespace keys.
const (
	KeyConnectionString = "docstore.connection-string"
	KeyUsername         = "docstore.username"
	KeyPassword         = "docstore.password"
	KeyBucketName       = "docstore.bucket-name"

	KeyConnectTimeout         = "docstore.env.timeouts.connect"
	KeyDisconnectTimeout      = "docstore.env.timeouts.disconnect"
	KeyKeyValueTimeout        = "docstore.env.timeouts.key-value"
	KeyKeyValueDurableTimeout = "docstore.env.timeouts.key-value-durable"
	KeyQueryTimeout           = "docstore.env.timeouts.query"
	KeyViewTimeout            = "docstore.env.timeouts.view"
	KeySearchTimeout          = "docstore.env.timeouts.search"
	KeyAnalyticsTimeout       = "docstore.env.timeouts.analytics"
	KeyManagementTimeout      = "docstore.env.timeouts.management"

	KeyMinEndpoints              = "docstore.env.io.min-endpoints"
	KeyMaxEndpoints              = "docstore.env.io.max-endpoints"
	KeyIdleHTTPConnectionTimeout = "docstore.env.io.idle-http-connection-timeout"

	KeySSLEnabled          = "docstore.env.ssl.enabled"
	KeySSLKeyStore         = "docstore.env.ssl.key-store"
	KeySSLKeyStorePassword = "docstore.env.ssl.key-store-password"

	KeyTypeKey             = "docstore.data.type-key"
	KeyAutoIndex           = "docstore.data.auto-index"
	KeyFieldNamingStrategy = "docstore.data.field-naming-strategy"
)

// Field naming strategies.
const (
	NamingCamel = "camel"
	NamingSnake = "snake"
)

// DefaultTypeKey is the document field holding the entity alias.
const DefaultTypeKey = "_class"

// TimeoutOptions are the per-operation timeouts.
type TimeoutOptions struct {
	Connect         time.Duration `json:"connect" mapstructure:"connect"`
	Disconnect      time.Duration `json:"disconnect" mapstructure:"disconnect"`
	KeyValue        time.Duration `json:"key-value" mapstructure:"key-value"`
	KeyValueDurable time.Duration `json:"key-value-durable" mapstructure:"key-value-durable"`
	Query           time.Duration `json:"query" mapstructure:"query"`
	View            time.Duration `json:"view" mapstructure:"view"`
	Search          time.Duration `json:"search" mapstructure:"search"`
	Analytics       time.Duration `json:"analytics" mapstructure:"analytics"`
	Management      time.Duration `json:"management" mapstructure:"management"`
}

// IOOptions size the connection pool.
type IOOptions struct {
	MinEndpoints              int           `json:"min-endpoints" mapstructure:"min-endpoints"`
	MaxEndpoints              int           `json:"max-endpoints" mapstructure:"max-endpoints"`
	IdleHTTPConnectionTimeout time.Duration `json:"idle-http-connection-timeout" mapstructure:"idle-http-connection-timeout"`
}

// SSLOptions reference the trust material.
type SSLOptions struct {
	Enabled          bool   `json:"enabled" mapstructure:"enabled"`
	KeyStore         string `json:"key-store" mapstructure:"key-store"`
	KeyStorePassword string `json:"-" mapstructure:"key-store-password"`
}

// EnvOptions group the client environment options.
type EnvOptions struct {
	Timeouts TimeoutOptions `json:"timeouts" mapstructure:"timeouts"`
	IO       IOOptions      `json:"io" mapstructure:"io"`
	SSL      SSLOptions     `json:"ssl" mapstructure:"ssl"`
}

// DataOptions configure the object mapping.
type DataOptions struct {
	TypeKey             string `json:"type-key" mapstructure:"type-key"`
	AutoIndex           bool   `json:"auto-index" mapstructure:"auto-index"`
	FieldNamingStrategy string `json:"field-naming-strategy" mapstructure:"field-naming-strategy"`
}

// Options defines configuration options for the document store.
type Options struct {
	ConnectionString string      `json:"connection-string" mapstructure:"connection-string"`
	Username         string      `json:"username" mapstructure:"username"`
	Password         string      `json:"-" mapstructure:"password"`
	BucketName       string      `json:"bucket-name" mapstructure:"bucket-name"`
	Env              EnvOptions  `json:"env" mapstructure:"env"`
	Data             DataOptions `json:"data" mapstructure:"data"`
}

// NewOptions creates a new Options object with default values. The
// environment fields mirror environment.Defaults.
func NewOptions() *Options {
	d := environment.Defaults()
	t, io := d.Timeouts(), d.IO()

	return &Options{
		Env: EnvOptions{
			Timeouts: TimeoutOptions{
				Connect:         t.Connect,
				Disconnect:      t.Disconnect,
				KeyValue:        t.KeyValue,
				KeyValueDurable: t.KeyValueDurable,
				Query:           t.Query,
				View:            t.View,
				Search:          t.Search,
				Analytics:       t.Analytics,
				Management:      t.Management,
			},
			IO: IOOptions{
				MinEndpoints:              io.MinConnections,
				MaxEndpoints:              io.MaxConnections,
				IdleHTTPConnectionTimeout: io.IdleConnectionTimeout,
			},
		},
		Data: DataOptions{
			TypeKey:             DefaultTypeKey,
			FieldNamingStrategy: NamingCamel,
		},
	}
}

type optionsForJSON struct {
	ConnectionString string      `json:"connection-string"`
	Username         string      `json:"username"`
	Password         string      `json:"password"`
	BucketName       string      `json:"bucket-name"`
	Env              EnvOptions  `json:"env"`
	Data             DataOptions `json:"data"`
}

// MarshalJSON implements json.Marshaler with password redaction.
func (o *Options) MarshalJSON() ([]byte, error) {
	password := redactedPassword
	if o.Password == "" {
		password = ""
	}

	return json.Marshal(optionsForJSON{
		ConnectionString: o.ConnectionString,
		Username:         o.Username,
		Password:         password,
		BucketName:       o.BucketName,
		Env:              o.Env,
		Data:             o.Data,
	})
}

// String returns a string representation with password redacted.
func (o *Options) String() string {
	password := redactedPassword
	if o.Password == "" {
		password = ""
	}
	return fmt.Sprintf("Docstore{connection-string=%s, user=%s, password=%s, bucket=%s}",
		o.ConnectionString, o.Username, password, o.BucketName)
}

// Complete fills in any fields not set that are required to have valid data.
func (o *Options) Complete() error {
	if o.Password == "" {
		o.Password = os.Getenv("DOCSTORE_PASSWORD")
	}
	if o.Data.TypeKey == "" {
		o.Data.TypeKey = DefaultTypeKey
	}
	if o.Data.FieldNamingStrategy == "" {
		o.Data.FieldNamingStrategy = NamingCamel
	}
	return nil
}

// Validate checks if the options are valid. Environment values are checked
// when the environment is built.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Data.FieldNamingStrategy {
	case NamingCamel, NamingSnake:
	default:
		errs = append(errs, fmt.Errorf("%s: unknown strategy %q (want %s or %s)",
			KeyFieldNamingStrategy, o.Data.FieldNamingStrategy, NamingCamel, NamingSnake))
	}
	if o.Username != "" && o.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("%s is set but %s is empty", KeyUsername, KeyConnectionString))
	}
	return errs
}

// AddFlags adds flags for document store options to the specified FlagSet.
// Flag names equal the namespace keys, so flags bound into the namespace are
// only reported as set when given on the command line.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...)

	fs.StringVar(&o.ConnectionString, p+KeyConnectionString, o.ConnectionString, "Document store connection string (mongodb://...).")
	fs.StringVar(&o.Username, p+KeyUsername, o.Username, "Username for the document store.")
	fs.StringVar(&o.Password, p+KeyPassword, o.Password, "Password for the document store (prefer the DOCSTORE_PASSWORD env var).")
	fs.StringVar(&o.BucketName, p+KeyBucketName, o.BucketName, "Bucket (database) to open.")

	t := &o.Env.Timeouts
	fs.DurationVar(&t.Connect, p+KeyConnectTimeout, t.Connect, "Timeout for establishing the connection.")
	fs.DurationVar(&t.Disconnect, p+KeyDisconnectTimeout, t.Disconnect, "Timeout for closing the connection.")
	fs.DurationVar(&t.KeyValue, p+KeyKeyValueTimeout, t.KeyValue, "Timeout for key/value operations.")
	fs.DurationVar(&t.KeyValueDurable, p+KeyKeyValueDurableTimeout, t.KeyValueDurable, "Timeout for durable key/value operations.")
	fs.DurationVar(&t.Query, p+KeyQueryTimeout, t.Query, "Timeout for queries.")
	fs.DurationVar(&t.View, p+KeyViewTimeout, t.View, "Timeout for view operations.")
	fs.DurationVar(&t.Search, p+KeySearchTimeout, t.Search, "Timeout for search operations.")
	fs.DurationVar(&t.Analytics, p+KeyAnalyticsTimeout, t.Analytics, "Timeout for analytics operations.")
	fs.DurationVar(&t.Management, p+KeyManagementTimeout, t.Management, "Timeout for management operations.")

	io := &o.Env.IO
	fs.IntVar(&io.MinEndpoints, p+KeyMinEndpoints, io.MinEndpoints, "Minimum number of pooled connections.")
	fs.IntVar(&io.MaxEndpoints, p+KeyMaxEndpoints, io.MaxEndpoints, "Maximum number of pooled connections.")
	fs.DurationVar(&io.IdleHTTPConnectionTimeout, p+KeyIdleHTTPConnectionTimeout, io.IdleHTTPConnectionTimeout, "Idle time after which a pooled connection is closed.")

	ssl := &o.Env.SSL
	fs.BoolVar(&ssl.Enabled, p+KeySSLEnabled, ssl.Enabled, "Enable TLS.")
	fs.StringVar(&ssl.KeyStore, p+KeySSLKeyStore, ssl.KeyStore, "Path to the PEM trust store.")
	fs.StringVar(&ssl.KeyStorePassword, p+KeySSLKeyStorePassword, ssl.KeyStorePassword, "Password of the trust store.")

	fs.StringVar(&o.Data.TypeKey, p+KeyTypeKey, o.Data.TypeKey, "Document field holding the entity alias.")
	fs.BoolVar(&o.Data.AutoIndex, p+KeyAutoIndex, o.Data.AutoIndex, "Create indexes for mapped entities on startup.")
	fs.StringVar(&o.Data.FieldNamingStrategy, p+KeyFieldNamingStrategy, o.Data.FieldNamingStrategy, "Field naming strategy (camel|snake).")
}

// FromProperties reads the options from a configuration namespace, keeping
// the defaults of NewOptions for absent keys.
func FromProperties(p options.Getter) (*Options, error) {
	o := NewOptions()

	strs := []struct {
		key string
		dst *string
	}{
		{KeyConnectionString, &o.ConnectionString},
		{KeyUsername, &o.Username},
		{KeyPassword, &o.Password},
		{KeyBucketName, &o.BucketName},
		{KeyTypeKey, &o.Data.TypeKey},
		{KeyFieldNamingStrategy, &o.Data.FieldNamingStrategy},
	}
	for _, s := range strs {
		v, err := options.String(p, s.key)
		if err != nil {
			return nil, err
		}
		if v != nil {
			*s.dst = *v
		}
	}

	autoIndex, err := options.Bool(p, KeyAutoIndex)
	if err != nil {
		return nil, err
	}
	if autoIndex != nil {
		o.Data.AutoIndex = *autoIndex
	}

	return o, nil
}

// EnvironmentOverrides reads the environment fields present in the
// namespace. Absent keys stay nil, so the builder keeps their defaults and
// does not mark them explicit.
func EnvironmentOverrides(p options.Getter) (environment.Overrides, error) {
	var (
		ov  environment.Overrides
		err error
	)

	durations := []struct {
		key string
		dst **time.Duration
	}{
		{KeyConnectTimeout, &ov.ConnectTimeout},
		{KeyDisconnectTimeout, &ov.DisconnectTimeout},
		{KeyKeyValueTimeout, &ov.KeyValueTimeout},
		{KeyKeyValueDurableTimeout, &ov.KeyValueDurableTimeout},
		{KeyQueryTimeout, &ov.QueryTimeout},
		{KeyViewTimeout, &ov.ViewTimeout},
		{KeySearchTimeout, &ov.SearchTimeout},
		{KeyAnalyticsTimeout, &ov.AnalyticsTimeout},
		{KeyManagementTimeout, &ov.ManagementTimeout},
		{KeyIdleHTTPConnectionTimeout, &ov.IdleConnectionTimeout},
	}
	for _, d := range durations {
		if *d.dst, err = options.Duration(p, d.key); err != nil {
			return environment.Overrides{}, err
		}
	}

	if ov.MinConnections, err = options.Int(p, KeyMinEndpoints); err != nil {
		return environment.Overrides{}, err
	}
	if ov.MaxConnections, err = options.Int(p, KeyMaxEndpoints); err != nil {
		return environment.Overrides{}, err
	}
	if ov.TLSEnabled, err = options.Bool(p, KeySSLEnabled); err != nil {
		return environment.Overrides{}, err
	}
	if ov.TrustStorePath, err = options.String(p, KeySSLKeyStore); err != nil {
		return environment.Overrides{}, err
	}
	if ov.TrustStorePassword, err = options.String(p, KeySSLKeyStorePassword); err != nil {
		return environment.Overrides{}, err
	}

	return ov, nil
}
