package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/GlebRadaev/liveticket/internal/commission"
	"github.com/GlebRadaev/liveticket/internal/config"
	"github.com/GlebRadaev/liveticket/internal/handlers"
	"github.com/GlebRadaev/liveticket/internal/notify"
	"github.com/GlebRadaev/liveticket/internal/payments"
	"github.com/GlebRadaev/liveticket/internal/pg"
	"github.com/GlebRadaev/liveticket/internal/reconcile"
	"github.com/GlebRadaev/liveticket/internal/repo"
	"github.com/GlebRadaev/liveticket/internal/service"
	"github.com/GlebRadaev/liveticket/pkg/auth"
	"github.com/GlebRadaev/liveticket/pkg/logger"
	"github.com/GlebRadaev/liveticket/pkg/ratelimit"
)

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg  *config.Config
	api  *handlers.Handlers
	srv  *service.Services
	repo *repo.Repositories
	ext  *reconcile.Service

	closers []io.Closer

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

	policy, err := commission.Load(cfg.CommissionPolicyFile)
	if err != nil {
		zap.L().Error("commission policy rejected: ", zap.Error(err))
		return fmt.Errorf("can't load commission policy: %w", err)
	}

	pool, err := getPgxpool(ctx, cfg)
	if err != nil {
		zap.L().Error("build pgx pool failed: ", zap.Error(err))
		return fmt.Errorf("can't build pgx pool: %w", err)
	}
	if err := pg.RunMigrations(pool); err != nil {
		zap.L().Error("migrations failed: ", zap.Error(err))
		return fmt.Errorf("can't run migrations: %w", err)
	}
	txManager := pg.NewTXManager(pool)

	conn := pg.New(pool)
	processor := payments.NewStripe(cfg.StripeSecretKey)
	events, err := a.newPublisher(cfg)
	if err != nil {
		return fmt.Errorf("can't build notification publisher: %w", err)
	}
	limiter, err := a.newLimiter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("can't connect rate limiter store: %w", err)
	}

	a.cfg = cfg
	a.repo = repo.New(conn, txManager)
	a.srv = service.New(a.repo, txManager, service.Deps{
		Processor: processor,
		Publisher: events,
		Policy:    policy,
		Currency:  cfg.Currency,
		MaxTip:    cfg.MaxTipAmount,
	})
	a.api = handlers.New(a.srv, payments.NewWebhookDecoder(cfg.StripeWebhookSecret), handlers.Options{
		Tokens:     auth.NewJWTService(cfg.JWTSecret),
		CronSecret: cfg.CronSecret,
		Limiter:    limiter,
	})
	a.ext = reconcile.New(a.repo.TicketRepo, a.repo.TipRepo, processor, a.srv.SettlementService,
		cfg.ReconcileInterval, cfg.PendingTimeout)

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}

	a.startReconciler(ctx)

	if err = a.startPayoutScheduler(ctx); err != nil {
		return fmt.Errorf("can't start payout scheduler: %w", err)
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()
		a.close()
		pool.Close()
	}()

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

func (a *Application) newPublisher(cfg *config.Config) (service.Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		zap.L().Info("no kafka brokers configured, notifications are dropped")
		return notify.Noop{}, nil
	}
	p, err := notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, p)
	return p, nil
}

func (a *Application) newLimiter(ctx context.Context, cfg *config.Config) (*ratelimit.Limiter, error) {
	if cfg.RedisAddr == "" {
		zap.L().Info("no redis configured, rate limiting is off")
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	a.closers = append(a.closers, client)
	return ratelimit.New(ratelimit.NewRedisCounter(client), cfg.RateLimit, cfg.RateLimitWindow), nil
}

func (a *Application) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			zap.L().Error("can't close resource", zap.Error(err))
		}
	}
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:              a.cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
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
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

func (a *Application) startReconciler(ctx context.Context) {
	a.ext.Start(ctx)
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
