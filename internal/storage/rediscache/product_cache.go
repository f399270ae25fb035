package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/nikitaegorov/storefront/internal/domain"
)

const defaultProductTTL = 30 * time.Second

// ProductCache — cache-aside декоратор над ProductRepository.
// Чтения идут через Redis, конкурентные промахи схлопываются через
// singleflight в один поход в хранилище. Ошибки Redis не фатальны:
// кеш деградирует до прямого чтения из репозитория.
type ProductCache struct {
	inner  domain.ProductRepository
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *log.Entry
}

// NewProductCache оборачивает репозиторий каталога кешем.
func NewProductCache(inner domain.ProductRepository, client *redis.Client, ttl time.Duration, logger *log.Entry) *ProductCache {
	if ttl <= 0 {
		ttl = defaultProductTTL
	}
	if logger == nil {
		logger = log.New().WithField("component", "product-cache")
	}
	return &ProductCache{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func productKey(tenantID, id string) string {
	return "product:" + tenantID + ":" + id
}

// Create пишет товар в хранилище и инвалидирует ключ кеша.
func (c *ProductCache) Create(product domain.Product) (domain.Product, error) {
	saved, err := c.inner.Create(product)
	if err != nil {
		return domain.Product{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.client.Del(ctx, productKey(saved.TenantID, saved.ID)).Err(); err != nil {
		c.logger.WithError(err).WithField("product_id", saved.ID).Warn("cache invalidation failed")
	}

	return saved, nil
}

// Get читает товар через кеш; промах загружает из хранилища и кладёт в Redis.
func (c *ProductCache) Get(tenantID, id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	key := productKey(tenantID, id)
	value, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var product domain.Product
		if unmarshalErr := json.Unmarshal([]byte(value), &product); unmarshalErr == nil {
			return product, nil
		}
		// Битую запись перечитываем из хранилища.
		c.logger.WithField("key", key).Warn("corrupted cache entry, refetching")
	} else if err != redis.Nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache read failed")
	}

	// singleflight схлопывает конкурентные промахи в один поход в хранилище.
	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		product, err := c.inner.Get(tenantID, id)
		if err != nil {
			return domain.Product{}, err
		}

		payload, marshalErr := json.Marshal(product)
		if marshalErr == nil {
			setCtx, setCancel := context.WithTimeout(context.Background(), time.Second)
			defer setCancel()
			if setErr := c.client.Set(setCtx, key, payload, c.ttl).Err(); setErr != nil {
				c.logger.WithError(setErr).WithField("key", key).Warn("cache write failed")
			}
		}

		return product, nil
	})
	if err != nil {
		return domain.Product{}, err
	}

	return result.(domain.Product), nil
}

var _ domain.ProductRepository = (*ProductCache)(nil)
