package rdx

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

func init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	Conn = redis.NewClient(&redis.Options{Addr: addr})
}

// RdxSet stores a value with a TTL. A zero TTL means no expiry.
func RdxSet(ctx context.Context, key, value string, ttl time.Duration) error {
	return Conn.Set(ctx, key, value, ttl).Err()
}

// RdxGet returns the cached value, or "" on miss or Redis failure. Callers
// treat a miss and an outage the same way: go to the source.
func RdxGet(ctx context.Context, key string) string {
	val, err := Conn.Get(ctx, key).Result()
	if err == redis.Nil {
		return ""
	}
	if err != nil {
		log.Printf("rdx: GET %s failed: %v", key, err)
		return ""
	}
	return val
}
