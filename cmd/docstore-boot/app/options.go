package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/docstore-boot/pkg/options"
	cacheopts "github.com/kart-io/docstore-boot/pkg/options/cache"
	dsopts "github.com/kart-io/docstore-boot/pkg/options/docstore"
	etcdopts "github.com/kart-io/docstore-boot/pkg/options/etcd"
	logopts "github.com/kart-io/docstore-boot/pkg/options/logger"
)

// Report output formats.
const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Options are the command-line options of docstore-boot.
//
// Log and Etcd configure the process itself and are read from flags only.
// Docstore and Cache register their flags so they show up in --help and
// take precedence when given; their values are read back from the resolved
// namespace.
type Options struct {
	Log      *logopts.Options
	Etcd     *etcdopts.Options
	Docstore *dsopts.Options
	Cache    *cacheopts.Options

	EnvPrefix     string
	Output        string
	HealthTimeout time.Duration
}

// NewOptions creates options with defaults.
func NewOptions() *Options {
	return &Options{
		Log:           logopts.NewOptions(),
		Etcd:          etcdopts.NewOptions(),
		Docstore:      dsopts.NewOptions(),
		Cache:         cacheopts.NewOptions(),
		Output:        OutputJSON,
		HealthTimeout: 5 * time.Second,
	}
}

// AddFlags adds every option group to fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.Log.AddFlags(fs)
	o.Etcd.AddFlags(fs)
	o.Docstore.AddFlags(fs)
	o.Cache.AddFlags(fs)

	fs.StringVar(&o.EnvPrefix, "env-prefix", o.EnvPrefix, "Only read environment variables starting with this prefix.")
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Report format (json|yaml).")
	fs.DurationVar(&o.HealthTimeout, "health-timeout", o.HealthTimeout, "Timeout of the startup health check.")
}

// Complete completes the process options.
func (o *Options) Complete() error {
	if err := options.CompleteAll(o.Log, o.Etcd); err != nil {
		return err
	}
	o.Output = strings.ToLower(strings.TrimSpace(o.Output))
	return nil
}

// Validate validates the process options.
func (o *Options) Validate() error {
	errs := options.ValidateAll(o.Log, o.Etcd)

	switch o.Output {
	case OutputJSON, OutputYAML:
	default:
		errs = append(errs, fmt.Errorf("unknown output format %q (want %s or %s)", o.Output, OutputJSON, OutputYAML))
	}
	if o.HealthTimeout <= 0 {
		errs = append(errs, fmt.Errorf("health timeout must be positive"))
	}

	return utilerrors.NewAggregate(errs)
}
