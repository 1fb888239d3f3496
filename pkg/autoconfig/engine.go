package autoconfig

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/kart-io/logger"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/docstore-boot/pkg/condition"
	"github.com/kart-io/docstore-boot/pkg/registry"
)

// Disconnecter is implemented by components that release resources with a
// context.
type Disconnecter interface {
	Disconnect(ctx context.Context) error
}

// Engine drives one startup pass over a set of definitions.
type Engine struct {
	reg  *registry.Registry
	defs []Definition

	mu         sync.Mutex
	ran        bool
	registered []string
}

// NewEngine creates an engine registering into reg.
func NewEngine(reg *registry.Registry, defs ...Definition) *Engine {
	return &Engine{
		reg:  reg,
		defs: append([]Definition(nil), defs...),
	}
}

// Add appends definitions. It must be called before Run.
func (e *Engine) Add(defs ...Definition) {
	e.defs = append(e.defs, defs...)
}

// Registry returns the registry the engine registers into.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Order returns the definitions in execution order without running them.
func (e *Engine) Order() ([]Definition, error) {
	return resolveOrder(e.defs)
}

// Run executes the startup pass. It stops at the first malformed condition,
// unresolved dependency or factory failure and returns the report so far.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ran {
		return nil, fmt.Errorf("autoconfiguration pass already ran")
	}
	e.ran = true

	report := newReport()

	ordered, err := resolveOrder(e.defs)
	if err != nil {
		return report, err
	}

	logger.Infow("Starting autoconfiguration pass", "pass", report.ID, "definitions", len(ordered))

	for _, def := range ordered {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		entry, err := e.runDefinition(ctx, def)
		report.Entries = append(report.Entries, entry)
		if err != nil {
			logger.Errorw("Autoconfiguration failed", "pass", report.ID, "definition", def.Name, "error", err)
			return report, err
		}
	}

	logger.Infow("Autoconfiguration pass finished",
		"pass", report.ID,
		"matched", len(report.Matched()),
		"skipped", len(report.Skipped()))
	return report, nil
}

func (e *Engine) runDefinition(ctx context.Context, def Definition) (ReportEntry, error) {
	cond := def.Condition
	if cond == nil {
		cond = condition.Always()
	}

	entry := ReportEntry{
		Definition: def.Name,
		Type:       def.Type,
		Condition:  cond.String(),
	}

	outcome, err := condition.Explain(cond, e.reg.Snapshot())
	if err != nil {
		entry.Message = err.Error()
		return entry, fmt.Errorf("definition %s: %w", def.Name, err)
	}
	entry.Matched = outcome.Match
	entry.Message = outcome.Message

	if !outcome.Match {
		logger.Debugw("Skipping definition", "definition", def.Name, "reason", outcome.Message)
		return entry, nil
	}

	instance, err := def.Factory(ctx, newResolver(e.reg, def.Name))
	if err != nil {
		return entry, fmt.Errorf("failed to create %s: %w", def.Name, err)
	}

	if err := e.reg.Register(registry.Component{
		Name:     def.Name,
		Type:     def.Type,
		Provides: def.Provides,
		Instance: instance,
	}); err != nil {
		return entry, fmt.Errorf("failed to register %s: %w", def.Name, err)
	}

	e.registered = append(e.registered, def.Name)
	entry.Registered = true
	logger.Infow("Registered component", "name", def.Name, "type", def.Type)
	return entry, nil
}

// Registered returns the names of the components the engine registered,
// in registration order.
func (e *Engine) Registered() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.registered...)
}

// Close releases the components the engine registered, in reverse order.
// Components implementing io.Closer are closed; components implementing
// Disconnecter are disconnected. Every component is attempted.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	names := append([]string(nil), e.registered...)
	e.registered = nil
	e.mu.Unlock()

	var errs []error
	for i := len(names) - 1; i >= 0; i-- {
		c, ok := e.reg.Get(names[i])
		if !ok {
			continue
		}

		var err error
		switch v := c.Instance.(type) {
		case Disconnecter:
			err = v.Disconnect(ctx)
		case io.Closer:
			err = v.Close()
		default:
			continue
		}

		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
			logger.Errorw("Error during shutdown", "component", c.Name, "error", err)
			continue
		}
		logger.Debugw("Closed component", "component", c.Name)
	}

	return utilerrors.NewAggregate(errs)
}
