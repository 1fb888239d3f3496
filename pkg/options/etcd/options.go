// Package etcd provides options for the etcd property source.
package etcd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/docstore-boot/pkg/options"
	"github.com/kart-io/docstore-boot/pkg/utils/json"
)

var _ options.IOptions = (*Options)(nil)

// redactedPassword is the placeholder used when serializing passwords.
const redactedPassword = "[REDACTED]"

// Options defines configuration options for reading properties from etcd.
// The source is disabled while Endpoints is empty.
type Options struct {
	Endpoints      []string      `json:"endpoints" mapstructure:"endpoints"`
	Prefix         string        `json:"prefix" mapstructure:"prefix"`
	Username       string        `json:"username" mapstructure:"username"`
	Password       string        `json:"-" mapstructure:"password"`
	DialTimeout    time.Duration `json:"dial-timeout" mapstructure:"dial-timeout"`
	RequestTimeout time.Duration `json:"request-timeout" mapstructure:"request-timeout"`
}

type optionsForJSON struct {
	Endpoints      []string      `json:"endpoints"`
	Prefix         string        `json:"prefix"`
	Username       string        `json:"username"`
	Password       string        `json:"password"`
	DialTimeout    time.Duration `json:"dial-timeout"`
	RequestTimeout time.Duration `json:"request-timeout"`
}

// MarshalJSON implements json.Marshaler with password redaction.
func (o *Options) MarshalJSON() ([]byte, error) {
	password := redactedPassword
	if o.Password == "" {
		password = ""
	}

	return json.Marshal(optionsForJSON{
		Endpoints:      o.Endpoints,
		Prefix:         o.Prefix,
		Username:       o.Username,
		Password:       password,
		DialTimeout:    o.DialTimeout,
		RequestTimeout: o.RequestTimeout,
	})
}

// String returns a string representation with password redacted.
func (o *Options) String() string {
	password := redactedPassword
	if o.Password == "" {
		password = ""
	}
	return fmt.Sprintf("Etcd{endpoints=%v, prefix=%s, user=%s, password=%s}",
		o.Endpoints, o.Prefix, o.Username, password)
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Prefix:         "/docstore-boot/",
		DialTimeout:    5 * time.Second,
		RequestTimeout: 2 * time.Second,
	}
}

// Enabled reports whether the etcd source should be read.
func (o *Options) Enabled() bool {
	return o != nil && len(o.Endpoints) > 0
}

// Complete fills in any fields not set that are required to have valid data.
func (o *Options) Complete() error {
	if o.Password == "" {
		o.Password = os.Getenv("ETCD_PASSWORD")
	}
	if o.Prefix != "" && !strings.HasSuffix(o.Prefix, "/") {
		o.Prefix += "/"
	}
	return nil
}

// Validate checks if the options are valid.
func (o *Options) Validate() []error {
	if !o.Enabled() {
		return nil
	}

	var errs []error
	if o.Prefix == "" {
		errs = append(errs, fmt.Errorf("etcd prefix must not be empty"))
	}
	if o.DialTimeout <= 0 {
		errs = append(errs, fmt.Errorf("etcd dial timeout must be positive"))
	}
	if o.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("etcd request timeout must be positive"))
	}
	return errs
}

// AddFlags adds flags for etcd options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "etcd."
	fs.StringSliceVar(&o.Endpoints, p+"endpoints", o.Endpoints, "Etcd endpoints to read properties from (disabled when empty)")
	fs.StringVar(&o.Prefix, p+"prefix", o.Prefix, "Key prefix holding the properties")
	fs.StringVar(&o.Username, p+"username", o.Username, "Etcd username")
	fs.StringVar(&o.Password, p+"password", o.Password, "Etcd password (prefer the ETCD_PASSWORD env var)")
	fs.DurationVar(&o.DialTimeout, p+"dial-timeout", o.DialTimeout, "Etcd dial timeout")
	fs.DurationVar(&o.RequestTimeout, p+"request-timeout", o.RequestTimeout, "Etcd request timeout")
}
