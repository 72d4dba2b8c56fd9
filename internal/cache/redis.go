package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KudzoNelsam/easycollis/internal/models"
)

const (
	popularDestinationsKey = "trips:popular-destinations"
	popularDestinationsTTL = 10 * time.Minute
)

// RedisCache is an optional read-through cache for the public discovery
// endpoints. Cache failures are logged and treated as misses so the API
// keeps working when Redis is down.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetPopularDestinations(ctx context.Context) ([]models.DestinationCount, bool) {
	data, err := c.client.Get(ctx, popularDestinationsKey).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("cache: get %s: %v", popularDestinationsKey, err)
		return nil, false
	}

	var destinations []models.DestinationCount
	if err := json.Unmarshal([]byte(data), &destinations); err != nil {
		log.Printf("cache: decode %s: %v", popularDestinationsKey, err)
		return nil, false
	}
	return destinations, true
}

func (c *RedisCache) SetPopularDestinations(ctx context.Context, destinations []models.DestinationCount) {
	data, err := json.Marshal(destinations)
	if err != nil {
		log.Printf("cache: encode %s: %v", popularDestinationsKey, err)
		return
	}
	if err := c.client.Set(ctx, popularDestinationsKey, data, popularDestinationsTTL).Err(); err != nil {
		log.Printf("cache: set %s: %v", popularDestinationsKey, err)
	}
}
