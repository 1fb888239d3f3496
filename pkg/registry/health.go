package registry

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

// Pinger is implemented by components that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus is the result of pinging one component.
type HealthStatus struct {
	Name    string        `json:"name"`
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
	Error   error         `json:"-"`
}

// healthCheckWorkers bounds the goroutines used by HealthCheckAll.
const healthCheckWorkers = 8

// HealthCheckAll pings every registered component implementing Pinger
// concurrently and returns their statuses keyed by component name.
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]HealthStatus {
	var targets []*Component
	for _, c := range r.Components() {
		if _, ok := c.Instance.(Pinger); ok {
			targets = append(targets, c)
		}
	}

	statuses := make(map[string]HealthStatus, len(targets))
	if len(targets) == 0 {
		return statuses
	}

	var statusMu sync.Mutex
	var wg sync.WaitGroup

	task := func(c *Component) {
		defer wg.Done()

		start := time.Now()
		err := c.Instance.(Pinger).Ping(ctx)
		latency := time.Since(start)

		statusMu.Lock()
		statuses[c.Name] = HealthStatus{
			Name:    c.Name,
			Healthy: err == nil,
			Latency: latency,
			Error:   err,
		}
		statusMu.Unlock()
	}

	pool, err := ants.NewPool(healthCheckWorkers)
	usePool := err == nil
	if usePool {
		defer pool.Release()
	}

	for _, c := range targets {
		wg.Add(1)
		c := c
		if usePool {
			if submitErr := pool.Submit(func() { task(c) }); submitErr == nil {
				continue
			}
		}
		go task(c)
	}

	wg.Wait()
	return statuses
}

// AllHealthy reports whether every pingable component is healthy.
func (r *Registry) AllHealthy(ctx context.Context) bool {
	for _, status := range r.HealthCheckAll(ctx) {
		if !status.Healthy {
			return false
		}
	}
	return true
}
