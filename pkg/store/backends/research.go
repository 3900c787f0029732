package backends

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/de-tools/bacc-research/pkg/config"
	"github.com/de-tools/bacc-research/pkg/store/mongo"
	mongoresearch "github.com/de-tools/bacc-research/pkg/store/mongo/research"
	"github.com/de-tools/bacc-research/pkg/store/postgres"
	postgresresearch "github.com/de-tools/bacc-research/pkg/store/postgres/research"
	"github.com/de-tools/bacc-research/pkg/store/redis"
	redisresearch "github.com/de-tools/bacc-research/pkg/store/redis/research"
	"github.com/de-tools/bacc-research/pkg/store/research"
)

// OpenResearch connects the configured research backend and pings it. Any
// failure is returned so startup can abort before serving requests.
func OpenResearch(ctx context.Context, cfg config.ResearchConfig) (research.Store, error) {
	logger := zerolog.Ctx(ctx)

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	var (
		s   research.Store
		err error
	)
	switch cfg.Backend {
	case config.BackendMongo:
		s, err = openMongo(ctx, cfg.Mongo)
	case config.BackendPostgres:
		s, err = openPostgres(ctx, cfg.Postgres)
	case config.BackendRedis:
		s, err = openRedis(ctx, cfg.Redis)
	case config.BackendMemory:
		s = research.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown research backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s research store: %w", cfg.Backend, err)
	}

	if err := s.Ping(ctx); err != nil {
		_ = s.Close(context.Background())
		return nil, fmt.Errorf("failed to ping %s research store: %w", cfg.Backend, err)
	}

	logger.Info().Str("backend", cfg.Backend).Msg("research store connected")
	return s, nil
}

func openMongo(ctx context.Context, cfg config.MongoConfig) (research.Store, error) {
	client, err := mongo.NewClient(ctx, mongo.Settings{URI: cfg.URI, Database: cfg.Database})
	if err != nil {
		return nil, err
	}
	s, err := mongoresearch.NewStore(ctx, client, cfg.Database, cfg.Collection)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func openPostgres(ctx context.Context, cfg config.PostgresConfig) (research.Store, error) {
	db, err := postgres.NewDB(ctx, postgres.Settings{DSN: cfg.DSN})
	if err != nil {
		return nil, err
	}
	s, err := postgresresearch.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func openRedis(ctx context.Context, cfg config.RedisConfig) (research.Store, error) {
	client, err := redis.NewClient(ctx, redis.Settings{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, err
	}
	s, err := redisresearch.NewStore(client, "")
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}
