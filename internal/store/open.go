package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"kifu/internal/config"
)

// Open returns the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig, log *zap.SugaredLogger) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		log.Info("using in-memory record store")
		return NewMemoryStore(), nil
	case config.BackendRedis:
		s, err := NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		log.Infow("connected to redis", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
		return s, nil
	case config.BackendMongo:
		s, err := NewMongoStore(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		log.Infow("connected to mongodb", "database", cfg.Mongo.Database, "collection", cfg.Mongo.Collection)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
