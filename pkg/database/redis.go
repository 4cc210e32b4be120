package database

import (
	"context"

	"actc_portal_go/pkg/log"

	"github.com/go-redis/redis/v8"
)

// RDB 全局 Redis 客户端，目前用作热门新闻列表的短 TTL 缓存。
var RDB *redis.Client

// InitRedis 建立 Redis 连接并做一次 Ping 探活。
func InitRedis(addr, password string, db int) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", err)
	}

	log.Info("Redis client connected successfully")
}
