package recorder

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/ishaanzatey/incident-handler/pkg/logger"
)

// CacheConfig holds the Redis settings for the statistics cache.
type CacheConfig struct {
	Address   string
	Password  string
	Database  int
	KeyPrefix string
	TTL       time.Duration
}

// cachedRecorder decorates a Recorder with a short-TTL Redis cache in front
// of Statistics. The dashboard polls the aggregate frequently while the
// underlying tables only change during a run, so a few seconds of staleness
// buys a large reduction in count queries. All other operations pass through.
type cachedRecorder struct {
	Recorder
	client *redis.Client
	key    string
	ttl    time.Duration
}

// WithStatsCache wraps rec with a Redis statistics cache. When the Redis
// connection cannot be established the recorder is returned unwrapped; the
// cache is an optimization, never a dependency.
func WithStatsCache(ctx context.Context, rec Recorder, cfg CacheConfig) Recorder {
	if cfg.Address == "" {
		return rec
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.Database,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warnf("Statistics cache unavailable (%v), serving statistics uncached", err)
		_ = client.Close()
		return rec
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "incident-handler"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Second
	}

	logger.Infof("Statistics cache connected to %s", cfg.Address)
	return &cachedRecorder{
		Recorder: rec,
		client:   client,
		key:      prefix + ":statistics",
		ttl:      ttl,
	}
}

func (c *cachedRecorder) Statistics(ctx context.Context) (*Statistics, error) {
	if data, err := c.client.Get(ctx, c.key).Bytes(); err == nil {
		var stats Statistics
		if err := json.Unmarshal(data, &stats); err == nil {
			return &stats, nil
		}
	}

	stats, err := c.Recorder.Statistics(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(stats); err == nil {
		if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
			logger.Debugf("Failed to cache statistics: %v", err)
		}
	}
	return stats, nil
}

func (c *cachedRecorder) Close() error {
	_ = c.client.Close()
	return c.Recorder.Close()
}
