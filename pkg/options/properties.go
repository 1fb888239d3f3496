package options

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	autoerrors "github.com/kart-io/docstore-boot/pkg/errors"
)

// Getter is the part of a configuration namespace needed to read a key
// while keeping track of whether it was set at all. *viper.Viper
// satisfies it.
type Getter interface {
	IsSet(key string) bool
	Get(key string) interface{}
}

// Duration reads key as a duration. It returns nil when the key is absent.
// Bare integers are milliseconds.
func Duration(p Getter, key string) (*time.Duration, error) {
	if !p.IsSet(key) {
		return nil, nil
	}
	raw := p.Get(key)

	switch v := raw.(type) {
	case time.Duration:
		return &v, nil
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			d := time.Duration(n) * time.Millisecond
			return &d, nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, invalid(key, raw, "duration")
		}
		return &d, nil
	default:
		n, err := cast.ToInt64E(raw)
		if err != nil {
			return nil, invalid(key, raw, "duration")
		}
		d := time.Duration(n) * time.Millisecond
		return &d, nil
	}
}

// Int reads key as an integer. It returns nil when the key is absent.
func Int(p Getter, key string) (*int, error) {
	if !p.IsSet(key) {
		return nil, nil
	}
	n, err := cast.ToIntE(p.Get(key))
	if err != nil {
		return nil, invalid(key, p.Get(key), "integer")
	}
	return &n, nil
}

// Bool reads key as a boolean. It returns nil when the key is absent.
func Bool(p Getter, key string) (*bool, error) {
	if !p.IsSet(key) {
		return nil, nil
	}
	b, err := cast.ToBoolE(p.Get(key))
	if err != nil {
		return nil, invalid(key, p.Get(key), "boolean")
	}
	return &b, nil
}

// String reads key as a string. It returns nil when the key is absent.
func String(p Getter, key string) (*string, error) {
	if !p.IsSet(key) {
		return nil, nil
	}
	s, err := cast.ToStringE(p.Get(key))
	if err != nil {
		return nil, invalid(key, p.Get(key), "string")
	}
	return &s, nil
}

// StringSlice reads key as a list. A single comma separated string is split.
// It returns nil when the key is absent.
func StringSlice(p Getter, key string) ([]string, error) {
	if !p.IsSet(key) {
		return nil, nil
	}
	raw := p.Get(key)
	if s, ok := raw.(string); ok {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	}
	out, err := cast.ToStringSliceE(raw)
	if err != nil {
		return nil, invalid(key, raw, "list")
	}
	return out, nil
}

func invalid(key string, raw interface{}, kind string) error {
	return autoerrors.NewConfigurationError(fmt.Sprintf("cannot use %v as %s", raw, kind), key)
}
