package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/nikitaegorov/storefront/internal/domain"
	"github.com/nikitaegorov/storefront/internal/storage/memory"
	"github.com/nikitaegorov/storefront/internal/storage/postgres"
	"github.com/nikitaegorov/storefront/internal/storage/rediscache"
)

// Dependencies содержит хранилища приложения.
type Dependencies struct {
	Orders      domain.OrderRepository
	Customers   domain.CustomerRepository
	Products    domain.ProductRepository
	Outbox      domain.OutboxRepository
	Timeline    domain.TimelineRepository
	Idempotency domain.IdempotencyRepository

	// Store не nil только при работе поверх PostgreSQL.
	Store *postgres.Store

	Logger *log.Entry
}

// NewDependencies инициализирует хранилища: PostgreSQL при заданном DSN,
// иначе in-memory. При заданном RedisAddr каталог оборачивается кешем.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{Logger: logger}

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("init postgres storage: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}

		deps.Store = store
		deps.Orders = postgres.NewOrderRepository(store)
		deps.Customers = postgres.NewCustomerRepository(store)
		deps.Products = postgres.NewProductRepository(store)
		deps.Outbox = postgres.NewOutboxRepository(store)
		deps.Timeline = postgres.NewTimelineRepository(store)
		deps.Idempotency = postgres.NewIdempotencyRepository(store)
		logger.Info("postgres storage initialized")
	} else {
		store := memory.NewStore()
		deps.Orders = memory.NewOrderRepository(store)
		deps.Customers = memory.NewCustomerRepository(store)
		deps.Products = memory.NewProductRepository(store)
		deps.Outbox = memory.NewOutboxRepository()
		deps.Timeline = memory.NewTimelineRepository()
		deps.Idempotency = memory.NewIdempotencyRepository()
		logger.Info("in-memory storage initialized")
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.WithError(err).Warn("redis is unreachable, continuing without product cache")
			_ = client.Close()
		} else {
			deps.Products = rediscache.NewProductCache(deps.Products, client, 0, logger.WithField("component", "product-cache"))
			logger.WithField("addr", cfg.RedisAddr).Info("product cache initialized")
		}
	}

	return deps, nil
}

// Close освобождает ресурсы хранилищ.
func (d *Dependencies) Close() {
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}
