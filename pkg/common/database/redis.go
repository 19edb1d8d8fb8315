package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/synaptica-ai/bloodwork/pkg/common/config"
	"github.com/synaptica-ai/bloodwork/pkg/common/logger"
)

// cacheTimeout bounds every report cache round trip. A slow cache is
// treated like a miss and the report is read from postgres.
const cacheTimeout = 500 * time.Millisecond

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// RedisOptions builds the client options for the report cache.
func RedisOptions(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  cacheTimeout,
		WriteTimeout: cacheTimeout,
		MaxRetries:   1,
	}
}

// GetRedis returns the process-wide report cache client. A failed ping is
// logged but the client is still returned; callers treat the cache as
// optional.
func GetRedis(cfg *config.Config) *redis.Client {
	redisOnce.Do(func() {
		opts := RedisOptions(cfg)
		redisClient = redis.NewClient(opts)

		entry := logger.Log.WithFields(logrus.Fields{
			"addr":   opts.Addr,
			"db":     opts.DB,
			"prefix": cfg.ReportCachePrefix,
			"ttl":    cfg.ReportCacheTTL.String(),
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			entry.WithError(err).Error("Report cache unreachable, reads will fall back to postgres")
		} else {
			entry.Info("Connected to report cache")
		}
	})

	return redisClient
}

func CloseRedis() error {
	if redisClient != nil {
		return redisClient.Close()
	}
	return nil
}
