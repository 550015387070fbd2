package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/application/analysis"
	domainAnalysis "github.com/aflahkuncoro/deforestation-monitoring/internal/domain/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

const defaultEstimateTTL = 24 * time.Hour

// EstimateCache stores hectare estimates in Redis keyed by the request
// shape.  A miss is not an error.
type EstimateCache struct {
	client *Client
	prefix string
	ttl    time.Duration
	logger logging.Logger
}

// NewEstimateCache constructs an estimate cache over client.
func NewEstimateCache(client *Client, log logging.Logger) *EstimateCache {
	ttl := client.cfg.DefaultTTL
	if ttl == 0 {
		ttl = defaultEstimateTTL
	}
	prefix := client.cfg.KeyPrefix
	if prefix == "" {
		prefix = "forestwatch"
	}
	return &EstimateCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: log.Named("estimate_cache"),
	}
}

var _ analysis.EstimateCache = (*EstimateCache)(nil)

// Get implements analysis.EstimateCache.
func (c *EstimateCache) Get(ctx context.Context, key string) ([]domainAnalysis.AreaEstimate, bool, error) {
	raw, err := c.client.rdb.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, errors.CodeCacheError, "estimate cache read failed")
	}

	var estimates []domainAnalysis.AreaEstimate
	if err := json.Unmarshal(raw, &estimates); err != nil {
		// A corrupt entry behaves like a miss; drop it so it does not
		// poison future reads.
		c.logger.Warn("corrupt cache entry dropped", logging.String("key", key))
		_ = c.client.rdb.Del(ctx, c.fullKey(key)).Err()
		return nil, false, nil
	}
	return estimates, true, nil
}

// Set implements analysis.EstimateCache.
func (c *EstimateCache) Set(ctx context.Context, key string, estimates []domainAnalysis.AreaEstimate) error {
	raw, err := json.Marshal(estimates)
	if err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "failed to encode estimates")
	}
	if err := c.client.rdb.Set(ctx, c.fullKey(key), raw, c.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.CodeCacheError, "estimate cache write failed")
	}
	return nil
}

func (c *EstimateCache) fullKey(key string) string {
	return c.prefix + ":estimates:" + key
}
