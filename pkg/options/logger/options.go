// Package logger holds the logging options of the docstore-boot command.
package logger

import (
	"fmt"
	"strings"

	"github.com/kart-io/logger"
	"github.com/kart-io/logger/core"
	"github.com/kart-io/logger/option"
	"github.com/spf13/pflag"

	"github.com/kart-io/docstore-boot/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options wraps option.LogOption. Logs go to stderr by default so that
// command output written to stdout stays machine readable.
type Options struct {
	*option.LogOption

	// Service and Version are attached to every entry when set.
	Service string
	Version string
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	lo := option.DefaultLogOption()
	lo.Format = "console"
	lo.OutputPaths = []string{"stderr"}
	lo.DisableStacktrace = true
	return &Options{LogOption: lo}
}

// AddFlags adds flags for logger options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "log."
	fs.StringVar(&o.Engine, p+"engine", o.Engine, "Logging engine (zap|slog)")
	fs.StringVar(&o.Level, p+"level", o.Level, "Log level (DEBUG|INFO|WARN|ERROR|FATAL)")
	fs.StringVar(&o.Format, p+"format", o.Format, "Log format (json|console)")
	fs.StringSliceVar(&o.OutputPaths, p+"output-paths", o.OutputPaths, "Output paths for logs")
	fs.BoolVar(&o.Development, p+"development", o.Development, "Enable development mode")
}

// Complete fills in defaults and normalizes the level.
func (o *Options) Complete() error {
	if o.LogOption == nil {
		o.LogOption = NewOptions().LogOption
	}
	o.Level = strings.ToUpper(o.Level)
	if len(o.OutputPaths) == 0 {
		o.OutputPaths = []string{"stderr"}
	}
	return nil
}

// Validate validates the logger options.
func (o *Options) Validate() []error {
	var errs []error
	switch o.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", o.Format))
	}
	if err := o.LogOption.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// CreateLogger creates a new logger instance based on the options.
func (o *Options) CreateLogger() (core.Logger, error) {
	if o.Service != "" {
		fields := map[string]interface{}{"service.name": o.Service}
		if o.Version != "" {
			fields["service.version"] = o.Version
		}
		o.InitialFields = fields
	}
	return logger.New(o.LogOption)
}

// Init installs the configured logger as the global logger.
func (o *Options) Init() error {
	log, err := o.CreateLogger()
	if err != nil {
		return err
	}
	logger.SetGlobal(log)
	return nil
}
