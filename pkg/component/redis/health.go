package redis

import (
	"context"
	"time"
)

// healthTimeout bounds the ping issued by Health.
const healthTimeout = 3 * time.Second

// HealthStats is the outcome of a detailed health check.
type HealthStats struct {
	Healthy   bool          `json:"healthy"`
	Latency   time.Duration `json:"latency"`
	PoolStats *PoolStats    `json:"pool_stats,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// PoolStats mirrors the go-redis connection pool counters.
type PoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

// Health returns a checker suitable for registry health checks.
func (c *Client) Health() func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()
		return c.Ping(ctx)
	}
}

// HealthWithStats pings the server and reports latency and pool counters.
func (c *Client) HealthWithStats(ctx context.Context) *HealthStats {
	stats := &HealthStats{}

	start := time.Now()
	err := c.Ping(ctx)
	stats.Latency = time.Since(start)
	if err != nil {
		stats.Error = err.Error()
		return stats
	}

	stats.Healthy = true
	ps := c.client.PoolStats()
	stats.PoolStats = &PoolStats{
		Hits:       ps.Hits,
		Misses:     ps.Misses,
		Timeouts:   ps.Timeouts,
		TotalConns: ps.TotalConns,
		IdleConns:  ps.IdleConns,
		StaleConns: ps.StaleConns,
	}
	return stats
}
