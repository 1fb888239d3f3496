package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kart-io/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader assembles the configuration namespace of one startup pass.
//
// Precedence, highest first: command-line flags that were explicitly given,
// environment variables, the etcd source, the configuration file.
type Loader struct {
	name      string
	file      string
	envPrefix string
	flags     *pflag.FlagSet
	remote    Source
}

// Source is a remote property source. Keys of the returned map are dotted
// namespace keys.
type Source interface {
	Name() string
	Read(ctx context.Context) (map[string]interface{}, error)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFile reads the given file instead of searching for <name>.yaml.
func WithFile(path string) LoaderOption {
	return func(l *Loader) {
		l.file = path
	}
}

// WithEnvPrefix restricts environment lookups to variables starting with
// prefix + "_". Without a prefix, docstore.username maps to
// DOCSTORE_USERNAME.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithFlags binds a flag set. Only flags changed on the command line count
// as set.
func WithFlags(fs *pflag.FlagSet) LoaderOption {
	return func(l *Loader) {
		l.flags = fs
	}
}

// WithSource adds a remote property source.
func WithSource(s Source) LoaderOption {
	return func(l *Loader) {
		l.remote = s
	}
}

// NewLoader creates a loader for the application name.
func NewLoader(name string, opts ...LoaderOption) *Loader {
	l := &Loader{name: name}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load builds a fresh namespace. It never touches the global viper instance.
func (l *Loader) Load(ctx context.Context) (*viper.Viper, error) {
	v := viper.New()

	if err := l.readFile(v); err != nil {
		return nil, err
	}

	if l.remote != nil {
		props, err := l.remote.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s properties: %w", l.remote.Name(), err)
		}
		if err := v.MergeConfigMap(nest(props)); err != nil {
			return nil, fmt.Errorf("failed to merge %s properties: %w", l.remote.Name(), err)
		}
		logger.Debugw("Merged remote properties", "source", l.remote.Name(), "count", len(props))
	}

	if err := expandEnvVars(v); err != nil {
		return nil, err
	}

	if l.envPrefix != "" {
		v.SetEnvPrefix(l.envPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if l.flags != nil {
		if err := v.BindPFlags(l.flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	return v, nil
}

func (l *Loader) readFile(v *viper.Viper) error {
	if l.file != "" {
		v.SetConfigFile(l.file)
	} else {
		v.SetConfigName(l.name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, "."+l.name))
		}
		v.AddConfigPath("/etc/" + l.name)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.file == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	logger.Debugw("Loaded config file", "file", v.ConfigFileUsed())
	return nil
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars expands ${VAR} and $VAR references in string values. Unknown
// variables are left as written. Expanded values are merged into the config
// layer so that env vars and changed flags still take precedence.
func expandEnvVars(v *viper.Viper) error {
	expanded := make(map[string]interface{})
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		out := envPattern.ReplaceAllStringFunc(strVal, func(match string) string {
			var varName string
			if strings.HasPrefix(match, "${") {
				varName = match[2 : len(match)-1]
			} else {
				varName = match[1:]
			}
			if envVal, ok := os.LookupEnv(varName); ok {
				return envVal
			}
			return match
		})
		if out != strVal {
			expanded[key] = out
		}
	}
	if len(expanded) == 0 {
		return nil
	}
	if err := v.MergeConfigMap(nest(expanded)); err != nil {
		return fmt.Errorf("failed to merge expanded properties: %w", err)
	}
	return nil
}

// nest turns dotted keys into the nested maps viper merges.
func nest(flat map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for key, val := range flat {
		parts := strings.Split(strings.ToLower(key), ".")
		m := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := m[p].(map[string]interface{})
			if !ok {
				next = make(map[string]interface{})
				m[p] = next
			}
			m = next
		}
		m[parts[len(parts)-1]] = val
	}
	return out
}
