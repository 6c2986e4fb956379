package kv

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	MemoryScheme = "mem"
	RedisScheme  = "redis"
	SQLiteScheme = "sqlite"
)

// Open creates a Store for storeURL:
//   - "" or mem://... : in-memory store
//   - redis://[user:password@]host:port/db : redis store
//   - sqlite:///path/to/file.db : sqlite store
//   - anything else (plain path, file://, gs://, s3://) : afs file store
func Open(ctx context.Context, storeURL string) (Store, error) {
	scheme := ""
	if index := strings.Index(storeURL, "://"); index != -1 {
		scheme = strings.ToLower(storeURL[:index])
	}
	switch {
	case storeURL == "" || scheme == MemoryScheme:
		return NewMemoryStore(), nil
	case scheme == RedisScheme || scheme == "rediss":
		options, err := redis.ParseURL(storeURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := redis.NewClient(options)
		if err = client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return NewRedisStore(client, ""), nil
	case scheme == SQLiteScheme:
		return OpenSQLite(ctx, storeURL[len(SQLiteScheme)+3:])
	default:
		return NewFileStore(storeURL), nil
	}
}
