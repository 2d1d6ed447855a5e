package app

import (
	"context"
	"errors"

	"patient-portal/internal/config"
	"patient-portal/internal/db"
	"patient-portal/internal/logger"
	"patient-portal/internal/patient"
	"patient-portal/internal/redis"
)

type Infra struct {
	DB       *db.DB // nil when running on the in-memory patient store
	Redis    *redis.Client
	Patients patient.Store
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	infra := &Infra{}

	if cfg.DatabaseDSN == "" {
		infra.Patients = patient.NewMemoryStore()
		logger.Warn("DATABASE_DSN not set, patients are kept in memory", nil)
	} else {
		conn, err := db.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}

		if err := db.Migrate(conn); err != nil {
			_ = conn.Close()
			return nil, err
		}

		infra.DB = conn
		infra.Patients = patient.NewPostgresStore(conn)
		logger.Info("database ready", nil)
	}

	redisClient, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	infra.Redis = redisClient

	logger.Info("redis ready", map[string]any{"addr": cfg.RedisAddr})

	return infra, nil
}

func (i *Infra) Close() error {
	var errs []error
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.DB != nil {
		errs = append(errs, i.DB.Close())
	}
	return errors.Join(errs...)
}
