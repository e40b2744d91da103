package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/GlebRadaev/loyalty/internal/config"
	"github.com/GlebRadaev/loyalty/internal/handlers"
	"github.com/GlebRadaev/loyalty/internal/pg"
	"github.com/GlebRadaev/loyalty/internal/repo"
	"github.com/GlebRadaev/loyalty/internal/service"
	"github.com/GlebRadaev/loyalty/pkg/auth"
	"github.com/GlebRadaev/loyalty/pkg/logger"
	"github.com/GlebRadaev/loyalty/pkg/ratelimit"
)

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg   *config.Config
	api   *handlers.Handlers
	srv   *service.Services
	repo  *repo.Repositories
	redis *redis.Client

	errCh chan error
	wg    sync.WaitGroup
	ready bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg := config.New()

	err := logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}

	pool, err := getPgxpool(ctx, cfg)
	if err != nil {
		zap.L().Error("build pgx pool failed: ", zap.Error(err))
		return fmt.Errorf("can't build pgx pool: %w", err)
	}
	version, err := pg.RunMigrations(ctx, pool)
	if err != nil {
		zap.L().Error("migrations failed: ", zap.Error(err))
		return fmt.Errorf("can't run migrations: %w", err)
	}
	zap.L().Info("schema up to date", zap.Int64("version", version))
	txManager := pg.NewTXManager(pool)

	redisClient, err := getRedisClient(ctx, cfg)
	if err != nil {
		zap.L().Error("redis connection failed: ", zap.Error(err))
		return fmt.Errorf("can't connect to redis: %w", err)
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	limiter := ratelimit.New(redisClient, "password_reset", cfg.ResetRateWindow)

	conn := pg.New(pool)
	a.cfg = cfg
	a.redis = redisClient
	a.repo = repo.New(conn, txManager)
	a.srv = service.New(a.repo, txManager, limiter, jwtService, cfg)
	a.api = handlers.New(a.srv, jwtService, cfg.CORSOrigins)

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}
	a.closeOnDone(ctx, pool)

	a.ready = true
	zap.L().Info("all systems started successfully")
	return nil
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		return nil, err
	}
	return dbpool, nil
}

func getRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddress,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:    a.cfg.Address,
		Handler: router,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(sCtx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

// closeOnDone releases the database pool and the redis client once the
// server has been asked to stop.
func (a *Application) closeOnDone(ctx context.Context, pool *pgxpool.Pool) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		if err := a.redis.Close(); err != nil {
			zap.L().Error("can't close redis client", zap.Error(err))
		}
		pool.Close()
	}()
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	return appErr
}
