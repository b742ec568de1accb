package main

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/and161185/libdesk/internal/config"
	"github.com/and161185/libdesk/internal/migrate"
	"github.com/and161185/libdesk/internal/store"
	"github.com/and161185/libdesk/internal/store/file"
	"github.com/and161185/libdesk/internal/store/postgres"
	redisstore "github.com/and161185/libdesk/internal/store/redis"
)

// stores are the session store and the sign-in throttle store, kept apart so a failed
// sign-in leaves the session store untouched.
type stores struct {
	session  store.Store
	throttle store.Store
}

const throttleSuffix = ".signin"

// Sign-in throttle: five failures within fifteen minutes lock the account out for five minutes.
const (
	throttleWindow   = 15 * time.Minute
	throttleMaxFails = 5
	throttleBlock    = 5 * time.Minute
	throttleTTL      = time.Hour
)

// openStore builds the configured stores and a func releasing their connections.
func openStore(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (stores, func(), error) {
	switch cfg.Driver {
	case config.DriverFile:
		s := file.New(cfg.Dir, cfg.Profile, cfg.Passphrase)
		log.Debug("session store", zap.String("driver", cfg.Driver), zap.String("path", s.Path()))
		return stores{s, file.New(cfg.Dir, cfg.Profile+throttleSuffix, cfg.Passphrase)}, func() {}, nil

	case config.DriverRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return stores{}, nil, err
		}
		log.Debug("session store", zap.String("driver", cfg.Driver), zap.String("addr", cfg.RedisAddr))
		return stores{
			redisstore.New(client, cfg.Profile, cfg.TTL),
			redisstore.New(client, cfg.Profile+throttleSuffix, throttleTTL),
		}, func() { _ = client.Close() }, nil

	case config.DriverPostgres:
		if err := migrate.Up(ctx, cfg.PostgresDSN); err != nil {
			return stores{}, nil, fmt.Errorf("migrate: %w", err)
		}
		db, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return stores{}, nil, err
		}
		log.Debug("session store", zap.String("driver", cfg.Driver))
		return stores{
			postgres.NewStore(db, cfg.Profile),
			postgres.NewStore(db, cfg.Profile+throttleSuffix),
		}, db.Close, nil
	}
	return stores{}, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
