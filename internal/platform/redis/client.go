package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"pawty/internal/platform/config"
	"pawty/pkg/platform/clock"
)

// PoolMetrics mirrors go-redis pool statistics into Prometheus.
type PoolMetrics struct {
	Hits       prometheus.Counter
	Misses     prometheus.Counter
	Timeouts   prometheus.Counter
	TotalConns prometheus.Gauge
	IdleConns  prometheus.Gauge
	StaleConns prometheus.Counter
}

func NewPoolMetrics(reg prometheus.Registerer) *PoolMetrics {
	f := promauto.With(reg)
	return &PoolMetrics{
		Hits: f.NewCounter(prometheus.CounterOpts{
			Name: "pawty_redis_pool_hits_total",
			Help: "Number of times a connection was found in the pool",
		}),
		Misses: f.NewCounter(prometheus.CounterOpts{
			Name: "pawty_redis_pool_misses_total",
			Help: "Number of times a connection was not found in the pool",
		}),
		Timeouts: f.NewCounter(prometheus.CounterOpts{
			Name: "pawty_redis_pool_timeouts_total",
			Help: "Number of times a connection was not obtained due to timeout",
		}),
		TotalConns: f.NewGauge(prometheus.GaugeOpts{
			Name: "pawty_redis_pool_total_conns",
			Help: "Number of total connections in the pool",
		}),
		IdleConns: f.NewGauge(prometheus.GaugeOpts{
			Name: "pawty_redis_pool_idle_conns",
			Help: "Number of idle connections in the pool",
		}),
		StaleConns: f.NewCounter(prometheus.CounterOpts{
			Name: "pawty_redis_pool_stale_conns_total",
			Help: "Number of stale connections removed from the pool",
		}),
	}
}

// Client wraps the go-redis client with health checking capabilities.
type Client struct {
	*redis.Client
	metrics *PoolMetrics

	mu        sync.Mutex
	lastStats *redis.PoolStats
}

// New creates a Redis client from cfg and pings it. m may be nil.
func New(ctx context.Context, cfg config.RedisConfig, m *PoolMetrics) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("redis URL is not configured")
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client, metrics: m}, nil
}

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.Client.Close()
}

// RecordPoolStats updates the pool metrics with the delta since the previous
// call. Call it periodically from a background goroutine.
func (c *Client) RecordPoolStats() {
	if c.metrics == nil {
		return
	}
	stats := c.PoolStats()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics.TotalConns.Set(float64(stats.TotalConns))
	c.metrics.IdleConns.Set(float64(stats.IdleConns))

	var last redis.PoolStats
	if c.lastStats != nil {
		last = *c.lastStats
	}
	addDelta(c.metrics.Hits, stats.Hits, last.Hits)
	addDelta(c.metrics.Misses, stats.Misses, last.Misses)
	addDelta(c.metrics.Timeouts, stats.Timeouts, last.Timeouts)
	addDelta(c.metrics.StaleConns, stats.StaleConns, last.StaleConns)

	c.lastStats = stats
}

// RunPoolStats records pool statistics every interval until ctx ends.
func (c *Client) RunPoolStats(ctx context.Context, clk clock.Clock, interval time.Duration) error {
	ticker := clk.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.RecordPoolStats()
		}
	}
}

func addDelta(counter prometheus.Counter, now, before uint32) {
	if now > before {
		counter.Add(float64(now - before))
	}
}
