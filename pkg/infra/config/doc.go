// Package config builds the configuration namespace read during startup.
//
// A Loader layers four property sources into one viper instance:
//
//   - a YAML or JSON file (searched as <name>.yaml in ., ./configs,
//     ~/.<name> and /etc/<name> unless a path is given);
//   - an optional remote Source such as EtcdSource;
//   - environment variables, with dots and dashes mapped to underscores;
//   - command-line flags, counted only when given explicitly.
//
// Presence is preserved: IsSet reports true only for keys that some source
// actually provides, so callers can tell an absent value from one set to
// its default.
//
//	l := config.NewLoader("docstore-boot",
//	    config.WithFile(path),
//	    config.WithFlags(cmd.Flags()),
//	)
//	v, err := l.Load(ctx)
package config
