package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/kart-io/logger"
	"github.com/spf13/viper"
)

// ChangeHandler is called with the sorted keys whose values differ after the
// configuration file was rewritten.
type ChangeHandler func(changed []string)

// Watcher reports which watched keys a configuration file change touched.
// Components are built once per startup, so the watcher only observes.
type Watcher struct {
	viper    *viper.Viper
	prefixes []string

	mu       sync.Mutex
	handlers map[string]ChangeHandler
	snapshot map[string]interface{}
	watching bool
}

// NewWatcher creates a watcher over the keys starting with one of prefixes.
// Without prefixes every key is watched.
func NewWatcher(v *viper.Viper, prefixes ...string) *Watcher {
	w := &Watcher{
		viper:    v,
		prefixes: prefixes,
		handlers: make(map[string]ChangeHandler),
	}
	w.snapshot = w.collect()
	return w
}

// Subscribe registers handler under id, replacing an earlier one.
func (w *Watcher) Subscribe(id string, handler ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[id] = handler
}

// Unsubscribe removes the handler registered under id.
func (w *Watcher) Unsubscribe(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.handlers, id)
}

// Start watches the file the namespace was read from. It fails when no file
// was read. Calling it again has no effect.
func (w *Watcher) Start() error {
	file := w.viper.ConfigFileUsed()
	if file == "" {
		return fmt.Errorf("no configuration file to watch")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watching {
		return nil
	}
	w.watching = true

	w.viper.OnConfigChange(w.handleChange)
	w.viper.WatchConfig()
	logger.Infow("Watching configuration file", "file", file)
	return nil
}

// IsWatching reports whether Start succeeded.
func (w *Watcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}

func (w *Watcher) handleChange(e fsnotify.Event) {
	if err := expandEnvVars(w.viper); err != nil {
		logger.Warnw("Failed to expand configuration file", "file", e.Name, "error", err)
	}
	changed := w.refresh()
	if len(changed) == 0 {
		logger.Debugw("Configuration file rewritten without changes", "file", e.Name)
		return
	}
	logger.Infow("Configuration file changed", "file", e.Name, "keys", changed)

	w.mu.Lock()
	ids := make([]string, 0, len(w.handlers))
	for id := range w.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	handlers := make([]ChangeHandler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, w.handlers[id])
	}
	w.mu.Unlock()

	for _, h := range handlers {
		h(changed)
	}
}

// refresh replaces the snapshot and returns the keys that differ.
func (w *Watcher) refresh() []string {
	next := w.collect()

	w.mu.Lock()
	prev := w.snapshot
	w.snapshot = next
	w.mu.Unlock()

	var changed []string
	for k, v := range next {
		if old, ok := prev[k]; !ok || !reflect.DeepEqual(old, v) {
			changed = append(changed, k)
		}
	}
	for k := range prev {
		if _, ok := next[k]; !ok {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

func (w *Watcher) collect() map[string]interface{} {
	out := make(map[string]interface{})
	for _, key := range w.viper.AllKeys() {
		if w.watches(key) {
			out[key] = w.viper.Get(key)
		}
	}
	return out
}

func (w *Watcher) watches(key string) bool {
	if len(w.prefixes) == 0 {
		return true
	}
	for _, p := range w.prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
