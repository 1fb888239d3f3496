// Package app bootstraps a command-line application with Cobra and Pflag.
//
//	a := app.NewApp(
//	    app.WithName("docstore-boot"),
//	    app.WithDescription("..."),
//	    app.WithFlags(opts.AddFlags),
//	    app.WithCommands(conditionsCmd, runCmd),
//	)
//	a.Run()
//
// The root command carries the --config, --version and --help flags and
// every flag added through WithFlags; subcommands inherit them.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kart-io/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ConfigFlag is the name of the flag selecting the configuration file.
const ConfigFlag = "config"

// App is the main application structure.
type App struct {
	name        string
	shortDesc   string
	description string
	flags       []func(fs *pflag.FlagSet)
	commands    []*cobra.Command
	cmd         *cobra.Command
	silence     bool
	noVersion   bool
	noConfig    bool
}

// Option configures an App.
type Option func(*App)

// WithName sets the application name.
func WithName(name string) Option {
	return func(a *App) {
		a.name = name
	}
}

// WithShortDescription sets the short description.
func WithShortDescription(desc string) Option {
	return func(a *App) {
		a.shortDesc = desc
	}
}

// WithDescription sets the long description.
func WithDescription(desc string) Option {
	return func(a *App) {
		a.description = desc
	}
}

// WithFlags registers persistent flags on the root command.
func WithFlags(add func(fs *pflag.FlagSet)) Option {
	return func(a *App) {
		a.flags = append(a.flags, add)
	}
}

// WithCommands adds subcommands.
func WithCommands(cmds ...*cobra.Command) Option {
	return func(a *App) {
		a.commands = append(a.commands, cmds...)
	}
}

// WithSilence disables error printing by cobra.
func WithSilence() Option {
	return func(a *App) {
		a.silence = true
	}
}

// WithNoVersion disables the version flag.
func WithNoVersion() Option {
	return func(a *App) {
		a.noVersion = true
	}
}

// WithNoConfig disables the config flag.
func WithNoConfig() Option {
	return func(a *App) {
		a.noConfig = true
	}
}

// NewApp creates a new application instance.
func NewApp(opts ...Option) *App {
	a := &App{
		name: filepath.Base(os.Args[0]),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:   a.name,
		Short: a.shortDesc,
		Long:  a.description,
		// Users can ask for --help; errors alone are enough.
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if !a.noVersion {
				version.PrintAndExitIfRequested()
			}
		},
	}
	if a.silence {
		cmd.SilenceErrors = true
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	pfs := cmd.PersistentFlags()
	pfs.SortFlags = true
	if !a.noConfig {
		pfs.StringP(ConfigFlag, "c", "", "Path to config file")
	}
	if !a.noVersion {
		version.AddFlags(pfs)
	}
	for _, add := range a.flags {
		add(pfs)
	}

	cmd.AddCommand(a.commands...)
	a.cmd = cmd
}

// Run executes the application and exits non-zero on error.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		if a.silence {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// Command returns the root cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Name returns the application name.
func (a *App) Name() string {
	return a.name
}
