package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aqarhub/property-service/internal/platform/logger"
	"github.com/aqarhub/property-service/internal/property/domain"
)

const (
	propertyKeyPrefix = "property:"
	propertyTTL       = 1 * time.Hour
)

// PropertyCache keeps full property aggregates in Redis so hot listing pages
// skip MongoDB. Misses return (nil, nil); the caller falls through to the
// repository.
type PropertyCache struct {
	client *redis.Client
	logger *logger.Logger
}

func NewPropertyCache(client *redis.Client, log *logger.Logger) *PropertyCache {
	return &PropertyCache{
		client: client,
		logger: log.Named("PropertyCache"),
	}
}

func (c *PropertyCache) Get(ctx context.Context, id string) (*domain.Property, error) {
	data, err := c.client.Get(ctx, propertyKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get failed: %w", err)
	}

	var property domain.Property
	if err := json.Unmarshal(data, &property); err != nil {
		// A corrupt entry is treated as a miss; the next Set overwrites it.
		c.logger.Warn("Failed to unmarshal cached property", zap.String("property_id", id), zap.Error(err))
		return nil, nil
	}
	return &property, nil
}

func (c *PropertyCache) Set(ctx context.Context, property *domain.Property) error {
	data, err := json.Marshal(property)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	if err := c.client.Set(ctx, propertyKeyPrefix+property.ID, data, propertyTTL).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

func (c *PropertyCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, propertyKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("cache delete failed: %w", err)
	}
	return nil
}
