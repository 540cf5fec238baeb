package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"example.com/gamerelay/internal/auth"
	"example.com/gamerelay/internal/config"
	"example.com/gamerelay/internal/gateway"
	"example.com/gamerelay/internal/httpapi"
	"example.com/gamerelay/internal/migrate"
	"example.com/gamerelay/internal/store"
)

type App struct {
	cfg config.Config
	log *slog.Logger

	db  *pgxpool.Pool // nil with the memory backend
	rdb *redis.Client

	gw  *gateway.Gateway
	srv *http.Server
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// --- Durable store ---
	var (
		durable store.Durable
		dbpool  *pgxpool.Pool
	)
	switch cfg.Storage.Backend {
	case "memory":
		log.Warn("using in-memory durable store; data is lost on exit")
		durable = store.NewMemory()
	default:
		if cfg.Postgres.RunMigrations {
			if err := migrate.Up(cfg.Postgres.URL, log); err != nil {
				return nil, err
			}
		}
		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("pgxpool: %w", err)
		}
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		dbpool = pool
		durable = store.NewPostgres(pool)
	}

	// --- Redis ---
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		closePool(dbpool)
		return nil, fmt.Errorf("redis url: %w", err)
	}
	if cfg.Redis.DB >= 0 {
		opts.DB = cfg.Redis.DB
	}
	if cfg.Redis.PoolSize > 0 {
		opts.PoolSize = cfg.Redis.PoolSize
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		closePool(dbpool)
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping (%s db=%d): %w", opts.Addr, opts.DB, err)
	}

	stores := store.New(rdb, durable, cfg.Redis.MatchTTL)

	// --- Gateway ---
	gw := gateway.New(
		gateway.Config{Token: cfg.Gateway.Token, ReadLimit: cfg.Gateway.ReadLimit},
		gateway.NewRegistry(),
		gateway.NewRouter(gateway.NewEventHandler(stores, log)),
		log,
	)

	handler := httpapi.NewRouter(httpapi.RouterConfig{
		Logger:      log,
		Auth:        auth.NewService([]byte(cfg.Auth.Secret), cfg.Auth.TokenTTL),
		Stores:      stores,
		Gateway:     gw,
		GatewayPath: cfg.Gateway.Path,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	return &App{cfg: cfg, log: log, db: dbpool, rdb: rdb, gw: gw, srv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr, "gateway_path", a.cfg.Gateway.Path)

	g.Go(func() error {
		err := a.srv.ListenAndServe()
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()

		a.log.Info("http server shutting down")
		_ = a.srv.Shutdown(shutdownCtx)

		// Hijacked WebSocket connections are not tracked by http.Server.
		a.log.Info("closing game server connections", "count", a.gw.Registry().Len())
		if err := a.gw.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("gateway shutdown incomplete", "err", err)
		}
		return nil
	})

	err := g.Wait()
	_ = a.Close(context.Background())
	return err
}

func (a *App) Close(ctx context.Context) error {
	// best-effort
	closePool(a.db)
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	return nil
}

func closePool(p *pgxpool.Pool) {
	if p != nil {
		p.Close()
	}
}
