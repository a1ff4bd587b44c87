package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/himitsu/internal/account"
	"github.com/yourusername/himitsu/internal/config"
	"github.com/yourusername/himitsu/internal/logutil"
	"github.com/yourusername/himitsu/internal/sessionstore"
	"github.com/yourusername/himitsu/internal/storage"
)

const connectTimeout = 10 * time.Second

// openAccountStore は STORE_DRIVER に応じたアカウントストアを返します。
// mongo の場合は一意インデックスも作成します。
func openAccountStore(ctx context.Context, cfg *config.Config) (account.Store, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log := logutil.GetOrDefault(ctx)
		log.Warn().Msg("using in-memory account store; data is lost on restart")
		return storage.NewMemory(), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := storage.Connect(connectCtx, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		_ = client.Disconnect(context.Background())
	}

	store := storage.NewMongo(client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection))
	if err := store.EnsureIndexes(connectCtx); err != nil {
		closeFn()
		return nil, nil, err
	}
	log := logutil.GetOrDefault(ctx)
	log.Info().Str("database", cfg.MongoDatabase).Msg("Database connected")
	return store, closeFn, nil
}

// openSessionStore は SESSION_STORE に応じたセッションストアを返します。
func openSessionStore(ctx context.Context, cfg *config.Config) (sessions.Store, func(), error) {
	if cfg.SessionStore != config.SessionStoreRedis {
		return cookie.NewStore(cfg.SessionKey()), func() {}, nil
	}

	opt, err := redis.ParseURL(cfg.SessionRedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse SESSION_REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return sessionstore.NewRedisStore(rdb, cfg.SessionKey()), func() { _ = rdb.Close() }, nil
}
