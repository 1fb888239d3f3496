// Package app implements the docstore-boot command.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/logger"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kart-io/docstore-boot/pkg/autoconfig"
	infraapp "github.com/kart-io/docstore-boot/pkg/infra/app"
	"github.com/kart-io/docstore-boot/pkg/utils/json"
)

const (
	appName        = "docstore-boot"
	appDescription = `docstore-boot autoconfigures a document store client.

It resolves configuration from flags, environment variables, an optional etcd
prefix and a YAML file, evaluates the autoconfiguration conditions and
registers the components whose conditions match: the client environment,
the cluster connection, the default database, the object mapping and the
cache manager.

Examples:
  # Show which definitions match and why
  docstore-boot conditions --docstore.connection-string=mongodb://localhost:27017

  # Same, as YAML, reading docstore-boot.yaml from ./configs
  docstore-boot conditions -o yaml

  # Start, check health and wait for a signal
  docstore-boot run -c /etc/docstore-boot/docstore-boot.yaml

Configuration precedence, highest first:
  - Command-line flags
  - Environment variables (docstore.username -> DOCSTORE_USERNAME)
  - Properties under the etcd prefix (--etcd.endpoints)
  - Configuration file (YAML)
  - Built-in defaults`
)

// NewApp creates the docstore-boot application.
func NewApp() *infraapp.App {
	opts := NewOptions()

	return infraapp.NewApp(
		infraapp.WithName(appName),
		infraapp.WithShortDescription("Autoconfigure a document store client"),
		infraapp.WithDescription(appDescription),
		infraapp.WithFlags(opts.AddFlags),
		infraapp.WithCommands(
			newConditionsCommand(opts),
			newRunCommand(opts),
		),
	)
}

func newConditionsCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "conditions",
		Short: "Print the condition evaluation report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := Start(cmd.Context(), opts, cmd.Flags())
			if err != nil {
				return err
			}
			defer stop(s)

			return WriteReport(cmd.OutOrStdout(), s.Report, opts.Output)
		},
	}
}

func newRunCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start, check component health and wait for a signal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			s, err := Start(ctx, opts, cmd.Flags())
			if err != nil {
				return err
			}
			defer stop(s)

			if err := s.CheckHealth(ctx, opts.HealthTimeout); err != nil {
				return err
			}

			s.WatchConfig()
			logger.Infow("docstore-boot started", "version", infraapp.GetVersion(), "components", s.Engine.Registered())
			<-ctx.Done()
			logger.Info("Shutting down")
			return nil
		},
	}
}

// WriteReport encodes the report as JSON or YAML.
func WriteReport(w io.Writer, report *autoconfig.Report, format string) error {
	switch format {
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	default:
		if err := json.NewEncoder(w).Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	}
}

// stop shuts s down and logs a failure. The error is returned for callers
// that want it.
func stop(s *Startup) error {
	err := s.Shutdown(context.Background())
	if err != nil {
		logger.Errorw("Shutdown failed", "error", err)
	}
	return err
}
