// Package app connects the stores and builds the services shared by the
// server and the simulator.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"ideogrid/internal/boundary"
	"ideogrid/internal/cache"
	"ideogrid/internal/catalog"
	"ideogrid/internal/classify"
	"ideogrid/internal/config"
	"ideogrid/internal/refdata"
	"ideogrid/internal/repository"
	"ideogrid/internal/service"
	"ideogrid/internal/vectors"
)

const pingTimeout = 5 * time.Second

type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Mongo   *mongo.Client
	Redis   *redis.Client
	Catalog *catalog.Loader
	Vectors *vectors.Store
	Auth    *service.AuthService
	Quiz    *service.QuizService
}

// New connects MongoDB and Redis and wires the quiz service. Reference
// tables are not read until first use.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	detector, err := boundary.NewDetector(cfg.Quiz.Band)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger}

	a.Mongo, err = mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := a.Mongo.Ping(pingCtx, nil); err != nil {
		a.Close(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	a.Redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := a.Redis.Ping(pingCtx).Err(); err != nil {
		a.Close(context.Background())
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

	timeout := cfg.Data.FetchTimeout
	a.Catalog = catalog.NewLoader(refdata.Resolve(cfg.Data.Questions, "questions.csv", timeout), logger)
	a.Vectors = vectors.NewStore(vectors.Sources{
		Vectors: refdata.Resolve(cfg.Data.Vectors, "vectors.csv", timeout),
		Coarse:  refdata.Resolve(cfg.Data.GridCoarse, "grid_coarse.csv", timeout),
		Fine:    refdata.Resolve(cfg.Data.GridFine, "grid_fine.csv", timeout),
	}, logger)

	a.Auth = service.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	a.Quiz = service.NewQuizService(
		a.Catalog,
		a.Vectors,
		cache.NewSessionCache(a.Redis, cfg.Redis.SessionTTL),
		repository.NewResultRepo(a.Mongo.Database(cfg.Mongo.Database)),
		cache.NewTallyCache(a.Redis),
		a.Auth,
		service.QuizSettings{
			Variants:       cfg.Quiz.Variants,
			DefaultVariant: cfg.Quiz.DefaultVariant,
			Detector:       detector,
			Matcher:        classify.Matcher{Weights: cfg.Quiz.Weights},
		},
		logger,
	)
	return a, nil
}

// Close disconnects the stores
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.Mongo != nil {
		errs = append(errs, a.Mongo.Disconnect(ctx))
	}
	return errors.Join(errs...)
}
