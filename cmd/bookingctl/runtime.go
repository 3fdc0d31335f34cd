package main

import (
	"context"
	"io"
	"time"

	"go.uber.org/multierr"

	"github.com/opsdesk/reservations-backend/pkg/config"
	"github.com/opsdesk/reservations-backend/pkg/db"
	"github.com/opsdesk/reservations-backend/pkg/logger"
	"github.com/opsdesk/reservations-backend/pkg/redis"
)

// runtime opens connections lazily so commands that only need config,
// like token mint, work without a database.
type runtime struct {
	out  io.Writer
	logg *logger.Logger
	now  func() time.Time

	loadConfig func() (*config.Config, error)
	openDB     func(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*db.Client, error)
	openRedis  func(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*redis.Client, error)

	cfg         *config.Config
	dbClient    *db.Client
	redisClient *redis.Client
}

func newRuntime(out io.Writer, logg *logger.Logger) *runtime {
	return &runtime{
		out:        out,
		logg:       logg,
		now:        time.Now,
		loadConfig: config.Load,
		openDB:     db.New,
		openRedis:  redis.New,
	}
}

func (rt *runtime) config() (*config.Config, error) {
	if rt.cfg != nil {
		return rt.cfg, nil
	}
	cfg, err := rt.loadConfig()
	if err != nil {
		return nil, err
	}
	rt.cfg = cfg
	return cfg, nil
}

func (rt *runtime) database(ctx context.Context) (*db.Client, error) {
	if rt.dbClient != nil {
		return rt.dbClient, nil
	}
	cfg, err := rt.config()
	if err != nil {
		return nil, err
	}
	client, err := rt.openDB(ctx, cfg.DB, rt.logg)
	if err != nil {
		return nil, err
	}
	rt.dbClient = client
	return client, nil
}

func (rt *runtime) redisConn(ctx context.Context) (*redis.Client, error) {
	if rt.redisClient != nil {
		return rt.redisClient, nil
	}
	cfg, err := rt.config()
	if err != nil {
		return nil, err
	}
	client, err := rt.openRedis(ctx, cfg.Redis, rt.logg)
	if err != nil {
		return nil, err
	}
	rt.redisClient = client
	return client, nil
}

func (rt *runtime) close() error {
	var err error
	if rt.redisClient != nil {
		err = multierr.Append(err, rt.redisClient.Close())
	}
	if rt.dbClient != nil {
		err = multierr.Append(err, rt.dbClient.Close())
	}
	return err
}
