package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kart-io/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kart-io/docstore-boot/pkg/autoconfig"
	"github.com/kart-io/docstore-boot/pkg/autoconfig/docstore"
	autoerrors "github.com/kart-io/docstore-boot/pkg/errors"
	infraapp "github.com/kart-io/docstore-boot/pkg/infra/app"
	"github.com/kart-io/docstore-boot/pkg/infra/config"
	"github.com/kart-io/docstore-boot/pkg/registry"
)

// Startup is the outcome of one startup pass.
type Startup struct {
	Config   *viper.Viper
	Registry *registry.Registry
	Engine   *autoconfig.Engine
	Report   *autoconfig.Report
}

// Start completes and validates opts, resolves the configuration namespace
// and runs the autoconfiguration. fs is the flag set bound into the
// namespace; only flags changed on the command line take effect.
func Start(ctx context.Context, opts *Options, fs *pflag.FlagSet) (*Startup, error) {
	if err := opts.Complete(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.Log.Service, opts.Log.Version = appName, infraapp.GetVersion()
	if err := opts.Log.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	props, err := loadProperties(ctx, opts, fs)
	if err != nil {
		return nil, err
	}

	reg := registry.New(props)
	if err := docstore.RegisterTypes(reg); err != nil {
		return nil, err
	}

	engine := autoconfig.NewEngine(reg, docstore.Definitions()...)
	report, err := engine.Run(ctx)
	if err != nil {
		if cerr := engine.Close(context.Background()); cerr != nil {
			logger.Errorw("Failed to release components after a failed startup", "error", cerr)
		}
		return nil, err
	}

	logger.Infow("Autoconfiguration finished",
		"report", report.ID, "matched", len(report.Matched()), "skipped", len(report.Skipped()))
	return &Startup{Config: props, Registry: reg, Engine: engine, Report: report}, nil
}

func loadProperties(ctx context.Context, opts *Options, fs *pflag.FlagSet) (*viper.Viper, error) {
	loaderOpts := []config.LoaderOption{
		config.WithEnvPrefix(opts.EnvPrefix),
		config.WithFlags(fs),
	}
	if fs != nil {
		if file, err := fs.GetString(infraapp.ConfigFlag); err == nil && file != "" {
			loaderOpts = append(loaderOpts, config.WithFile(file))
		}
	}

	if opts.Etcd.Enabled() {
		src, err := config.NewEtcdSource(opts.Etcd)
		if err != nil {
			return nil, err
		}
		defer func() { _ = src.Close() }()
		loaderOpts = append(loaderOpts, config.WithSource(src))
	}

	return config.NewLoader(appName, loaderOpts...).Load(ctx)
}

// CheckHealth pings every pingable component and fails if one is unhealthy.
func (s *Startup) CheckHealth(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	statuses := s.Registry.HealthCheckAll(ctx)
	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	var unhealthy []string
	for _, name := range names {
		st := statuses[name]
		if st.Healthy {
			logger.Infow("Component healthy", "component", name, "latency", st.Latency)
			continue
		}
		logger.Errorw("Component unhealthy", "component", name, "error", st.Error)
		unhealthy = append(unhealthy, name)
	}

	if len(unhealthy) > 0 {
		return autoerrors.ErrConnectionFailed.WithMessagef("unhealthy components: %v", unhealthy)
	}
	return nil
}

// WatchConfig logs a warning whenever the configuration file changes a
// docstore or cache property. It does nothing when no file was read.
func (s *Startup) WatchConfig() {
	if s.Config.ConfigFileUsed() == "" {
		return
	}
	w := config.NewWatcher(s.Config, "docstore.", "cache.")
	w.Subscribe(appName, func(changed []string) {
		logger.Warnw("Configuration changed, restart to apply", "keys", changed)
	})
	if err := w.Start(); err != nil {
		logger.Warnw("Cannot watch configuration file", "error", err)
	}
}

// Shutdown releases the registered components and flushes the logger.
func (s *Startup) Shutdown(ctx context.Context) error {
	err := s.Engine.Close(ctx)
	_ = logger.Flush()
	return err
}
