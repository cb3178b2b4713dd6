package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/notice"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/order"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/pkg/apiclient"
	"github.com/Skotchmaster/storefront/pkg/config"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type resources struct {
	gormDB *gorm.DB
	redis  *redis.Client
}

func (r *resources) close(l *slog.Logger) {
	if r.redis != nil {
		if err := r.redis.Close(); err != nil {
			l.Error("redis_close_error", "error", err)
		}
	}
	if r.gormDB != nil {
		if err := db.Close(r.gormDB); err != nil {
			l.Error("db_close_error", "error", err)
		}
	}
}

func (r *resources) redisClient(cfg config.Config) *redis.Client {
	if r.redis == nil {
		r.redis = storage.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	}
	return r.redis
}

func openStorage(ctx context.Context, cfg config.Config, res *resources) (storage.Store, error) {
	switch cfg.StorageDSN {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "redis":
		config.MustNonEmpty(cfg.RedisAddr, "REDIS_ADDR")
		rs := storage.NewRedisStore(res.redisClient(cfg), cfg.Profile)
		if err := rs.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return rs, nil
	default:
		gdb, err := db.Open(ctx, cfg.StorageDSN)
		if err != nil {
			return nil, err
		}
		res.gormDB = gdb
		return storage.NewGormStore(ctx, gdb)
	}
}

func openRemote(cfg config.Config, res *resources, instance string, l *slog.Logger) (notify.Remote, error) {
	switch cfg.NotifyBackend {
	case "kafka":
		config.MustNonEmptyList(cfg.KafkaBrokers, "KAFKA_BROKERS")
		return notify.NewKafkaRemote(cfg.KafkaBrokers, cfg.KafkaTopic, instance, l)
	case "redis":
		config.MustNonEmpty(cfg.RedisAddr, "REDIS_ADDR")
		return notify.NewRedisRemote(res.redisClient(cfg), l), nil
	default:
		return notify.NopRemote{}, nil
	}
}

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.APIBaseURL, "API_BASE_URL")

	l := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(l)

	res := &resources{}
	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	durable, err := openStorage(initCtx, cfg, res)
	cancel()
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}
	kv := storage.NewFallback(durable, l)

	hostname, _ := os.Hostname()
	remote, err := openRemote(cfg, res, hostname+"-"+cfg.Profile, l)
	if err != nil {
		log.Fatalf("notify init error: %v", err)
	}
	bus := notify.NewBus(remote, l)

	sess := session.NewStore(kv, l)
	api := apiclient.NewClient(apiclient.Options{
		BaseURL:     cfg.APIBaseURL,
		LocationURL: cfg.LocationURL,
		Timeout:     cfg.HTTPTimeout,
		Session:     sess,
		Log:         l,
	})
	sink := notice.Multi(notice.LogSink{Log: l}, notice.SinkFunc(func(ctx context.Context, n notice.Notice) {
		bus.Publish(ctx, notify.KindNotice, "", map[string]any{
			"title":       n.Title,
			"description": n.Description,
			"variant":     string(n.Variant),
			"duration_ms": n.Duration.Milliseconds(),
		})
	}))

	carts := cart.NewStore(kv, bus, l)
	orders := order.NewService(api, sink, l)
	watcher := order.NewWatcher(api, kv, bus, sink, cfg.OrderPollInterval, l)

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), httpserver.RequestLogger(l))

	authMW := &httpserver.AuthMiddleware{Secret: cfg.JWTSecret, Session: sess}
	httpserver.Register(e, &httpserver.Deps{
		CartHandler: &httpserver.CartHTTP{Cart: carts},
		OrderHandler: &httpserver.OrderHTTP{
			Orders:   orders,
			Checkout: checkout.New(carts, api, sink, l),
			Session:  sess,
		},
		SessionHandler: &httpserver.SessionHTTP{Session: sess, Bus: bus},
		OptionsHandler: &httpserver.OptionsHTTP{API: api},
		EventsHandler:  &httpserver.EventsHTTP{Bus: bus},
		Auth:           authMW,
		Ready: func() error {
			if kv.Degraded() {
				return errors.New("storage degraded to memory")
			}
			return nil
		},
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	go func() {
		if err := bus.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.Error("notify_run_error", "error", err)
		}
	}()
	go runWatcher(ctx, sess, watcher, l)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		l.Info("server_starting", "port", cfg.ServerPort, "storage", cfg.StorageDSN, "notify", cfg.NotifyBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting_down")
	stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("server_shutdown_error", "error", err)
	}
	if err := bus.Close(); err != nil {
		l.Error("notify_close_error", "error", err)
	}
	res.close(l)
	l.Info("shutdown_complete")
}

// runWatcher polls for new orders only while an admin is signed in.
func runWatcher(ctx context.Context, sess *session.Store, w *order.Watcher, l *slog.Logger) {
	t := time.NewTicker(time.Second)
	defer t.Stop()

	var cancel context.CancelFunc
	defer func() {
		if cancel != nil {
			cancel()
		}
	}()
	for {
		claims, err := sess.Claims(ctx)
		admin := err == nil && claims.IsAdmin()
		switch {
		case admin && cancel == nil:
			var wctx context.Context
			wctx, cancel = context.WithCancel(ctx)
			l.Info("order_watcher_started")
			go w.Run(wctx)
		case !admin && cancel != nil:
			cancel()
			cancel = nil
			l.Info("order_watcher_stopped")
		}

		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
