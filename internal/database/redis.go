package database

import (
	"context"
	"fmt"
	"time"

	"go-formation-reservation/config"

	"github.com/redis/go-redis/v9"
)

// InitRedis 建立 Redis 連線，給事件串流用。
// 訂閱端靠 XReadGroup 的 Block 長輪詢，ReadTimeout 要蓋過 block 時間，
// 不然每輪都會被 client 端逾時砍掉。
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
		ReadTimeout: 30 * time.Second,
		PoolSize:    10,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}
