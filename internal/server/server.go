// Package server composes the dependencies shared by the API, the worker and
// shopctl: config, logger, the Postgres pool, Redis, the task queue and the
// services built on them. Each binary builds one Server and closes it on exit.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"shopapi/internal/cache"
	"shopapi/internal/config"
	"shopapi/internal/database"
	"shopapi/internal/jobs"
	"shopapi/internal/mailer"
	"shopapi/internal/metrics"
	"shopapi/internal/payment/zenopay"
	"shopapi/internal/repository/postgres"
	"shopapi/internal/service"
	"shopapi/internal/storage"
)

// Server is the application container. It is not the HTTP server itself.
type Server struct {
	Config   *config.AppConfig
	Logger   zerolog.Logger
	DB       *sql.DB
	Redis    *redis.Client
	Queue    *jobs.Client
	Registry *prometheus.Registry
	Services *Services
}

// Services holds every business service wired to Postgres, Redis and the gateway.
type Services struct {
	Catalog       service.CatalogService
	Cart          service.CartService
	Reviews       service.ReviewService
	Users         service.UserService
	Addresses     service.AddressService
	Orders        service.OrderService
	Payments      service.PaymentService
	Notifications service.NotificationService
	Admin         service.AdminService
}

// New connects to Postgres and Redis and builds the services. Migrations run
// first when cfg.Database.AutoMigrate is set. A Redis that does not answer a
// ping only disables the catalog cache; the queue reconnects on its own.
func New(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (*Server, error) {
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, cfg.Database, log); err != nil {
			return nil, err
		}
	}

	db, err := database.NewPostgres(cfg.Database, log, database.Options{
		TraceSQL: cfg.IsLocal(),
		LogLevel: zerolog.DebugLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	s := &Server{
		Config:   cfg,
		Logger:   log,
		DB:       db,
		Redis:    cache.NewRedisClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB),
		Queue:    jobs.NewClient(jobs.RedisOpt(cfg.Redis), log),
		Registry: prometheus.NewRegistry(),
	}
	s.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var catalogCache cache.Cache = cache.NewRedisCache(s.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Redis.Ping(pingCtx).Err(); err != nil {
		log.Error().Err(err).Msg("failed to connect to redis, catalog cache disabled")
		catalogCache = cache.Nop{}
	}

	if s.Services, err = s.buildServices(ctx, catalogCache); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) buildServices(ctx context.Context, catalogCache cache.Cache) (*Services, error) {
	cfg, log := s.Config, s.Logger

	shippingFee, err := decimal.NewFromString(cfg.Shop.ShippingFee)
	if err != nil {
		return nil, fmt.Errorf("invalid shop shipping fee %q: %w", cfg.Shop.ShippingFee, err)
	}

	var store storage.Storage
	if cfg.MinIO.Enabled() {
		if store, err = storage.NewMinIO(ctx, cfg.MinIO); err != nil {
			return nil, fmt.Errorf("failed to initialize object storage: %w", err)
		}
	} else {
		log.Warn().Msg("object storage not configured, product image uploads disabled")
	}

	sender, err := mailer.NewSender(cfg.Mail, log)
	if err != nil {
		return nil, err
	}

	paymentMetrics, err := metrics.NewPayments(s.Registry)
	if err != nil {
		return nil, fmt.Errorf("register payment metrics: %w", err)
	}

	products := postgres.NewProductPostgres(s.DB)
	categories := postgres.NewCategoryPostgres(s.DB)
	users := postgres.NewUserPostgres(s.DB)
	addresses := postgres.NewAddressPostgres(s.DB)
	carts := postgres.NewCartPostgres(s.DB)
	orders := postgres.NewOrderPostgres(s.DB)

	gateway := zenopay.New(zenopay.Config{
		BaseURL: cfg.ZenoPay.BaseURL,
		APIKey:  cfg.ZenoPay.APIKey,
		Timeout: time.Duration(cfg.ZenoPay.TimeoutSec) * time.Second,
	})

	return &Services{
		Catalog:   service.NewCatalogService(products, categories, catalogCache, time.Duration(cfg.Shop.CatalogCacheTTL)*time.Second, log),
		Cart:      service.NewCartService(carts, products),
		Reviews:   service.NewReviewService(postgres.NewReviewPostgres(s.DB), products, catalogCache, log),
		Users:     service.NewUserService(users, cfg.Auth.AdminEmails),
		Addresses: service.NewAddressService(addresses),
		Orders:    service.NewOrderService(orders),
		Payments: service.NewPaymentService(service.PaymentDeps{
			Payments:  postgres.NewPaymentPostgres(s.DB),
			Carts:     carts,
			Addresses: addresses,
			Users:     users,
			Gateway:   gateway,
			Queue:     s.Queue,
			Metrics:   paymentMetrics,
			Logger:    log,
		}, service.PaymentConfig{
			WebhookURL:     cfg.ZenoPay.WebhookURL,
			WebhookAPIKey:  cfg.ZenoPay.APIKey,
			Currency:       cfg.Shop.Currency,
			ShippingFee:    shippingFee,
			SessionTTL:     time.Duration(cfg.ZenoPay.SessionTTLMin) * time.Minute,
			PollInterval:   time.Duration(cfg.ZenoPay.PollIntervalSec) * time.Second,
			ReconcileDelay: time.Duration(cfg.ZenoPay.ReconcileDelaySec) * time.Second,
		}),
		Notifications: service.NewNotificationService(orders, mailer.New(sender, cfg.Mail, log), s.Queue, log),
		Admin: service.NewAdminService(service.AdminDeps{
			Products:          products,
			Categories:        categories,
			Stats:             postgres.NewStatsPostgres(s.DB),
			Store:             store,
			Cache:             catalogCache,
			LowStockThreshold: cfg.Shop.LowStockThreshold,
			Logger:            log,
		}),
	}, nil
}

// Close releases the queue, Redis and the database pool.
func (s *Server) Close() error {
	var errs []error
	if s.Queue != nil {
		errs = append(errs, s.Queue.Close())
	}
	if s.Redis != nil {
		errs = append(errs, s.Redis.Close())
	}
	if s.DB != nil {
		errs = append(errs, s.DB.Close())
	}
	return errors.Join(errs...)
}
