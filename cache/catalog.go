package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/redis/go-redis/v9"

	"github.com/dzoniops/booking-service/config"
	"github.com/dzoniops/booking-service/models"
)

const (
	keyList         = "catalog:list:%s:%s"
	keyItem         = "catalog:item:%s:%s"
	keyDestinations = "catalog:destinations"
	keyDestination  = "catalog:destination:%s"
)

// Source is the store the cache reads through to.
type Source interface {
	InsertBooking(ctx context.Context, b *models.Booking) error
	ListCatalog(ctx context.Context, kind models.Kind, destinationID string) ([]models.CatalogItem, error)
	GetByID(ctx context.Context, kind models.Kind, id string) (*models.CatalogItem, error)
	ListDestinations(ctx context.Context) ([]models.Destination, error)
	GetDestination(ctx context.Context, id string) (*models.Destination, error)
	CreateDestination(ctx context.Context, d *models.Destination) error
	CreateCatalogItem(ctx context.Context, item *models.CatalogItem) error
}

func NewClient(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// Catalog serves catalog reads from redis and falls back to the source on
// a miss or when redis is unreachable. Bookings always go to the source.
// Catalog writes go to the source and then flush every cached read.
type Catalog struct {
	src    Source
	cli    *redis.Client
	ttl    time.Duration
	logger log.Logger
}

func NewCatalog(src Source, cli *redis.Client, ttl time.Duration, logger log.Logger) *Catalog {
	return &Catalog{
		src:    src,
		cli:    cli,
		ttl:    ttl,
		logger: log.With(logger, "component", "catalog-cache"),
	}
}

func (c *Catalog) InsertBooking(ctx context.Context, b *models.Booking) error {
	return c.src.InsertBooking(ctx, b)
}

func (c *Catalog) ListCatalog(
	ctx context.Context,
	kind models.Kind,
	destinationID string,
) ([]models.CatalogItem, error) {
	return readThrough(ctx, c, fmt.Sprintf(keyList, kind, destinationID), func() ([]models.CatalogItem, error) {
		return c.src.ListCatalog(ctx, kind, destinationID)
	})
}

func (c *Catalog) GetByID(ctx context.Context, kind models.Kind, id string) (*models.CatalogItem, error) {
	return readThrough(ctx, c, fmt.Sprintf(keyItem, kind, id), func() (*models.CatalogItem, error) {
		return c.src.GetByID(ctx, kind, id)
	})
}

func (c *Catalog) ListDestinations(ctx context.Context) ([]models.Destination, error) {
	return readThrough(ctx, c, keyDestinations, func() ([]models.Destination, error) {
		return c.src.ListDestinations(ctx)
	})
}

func (c *Catalog) GetDestination(ctx context.Context, id string) (*models.Destination, error) {
	return readThrough(ctx, c, fmt.Sprintf(keyDestination, id), func() (*models.Destination, error) {
		return c.src.GetDestination(ctx, id)
	})
}

func (c *Catalog) CreateDestination(ctx context.Context, d *models.Destination) error {
	if err := c.src.CreateDestination(ctx, d); err != nil {
		return err
	}
	c.flush(ctx)
	return nil
}

func (c *Catalog) CreateCatalogItem(ctx context.Context, item *models.CatalogItem) error {
	if err := c.src.CreateCatalogItem(ctx, item); err != nil {
		return err
	}
	c.flush(ctx)
	return nil
}

// flush keeps a write successful when redis is down; stale entries then
// expire with the TTL.
func (c *Catalog) flush(ctx context.Context) {
	if err := c.Invalidate(ctx); err != nil {
		level.Warn(c.logger).Log("msg", "catalog cache not flushed", "err", err)
	}
}

// Invalidate drops every cached catalog entry.
func (c *Catalog) Invalidate(ctx context.Context) error {
	iter := c.cli.Scan(ctx, 0, "catalog:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan catalog keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.cli.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete catalog keys: %w", err)
	}
	return nil
}

func readThrough[T any](ctx context.Context, c *Catalog, key string, load func() (T, error)) (T, error) {
	val, err := c.cli.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached T
		if err := json.Unmarshal(val, &cached); err == nil {
			return cached, nil
		}
		level.Warn(c.logger).Log("msg", "dropping unreadable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		level.Warn(c.logger).Log("msg", "cache read failed", "key", key, "err", err)
	}

	out, err := load()
	if err != nil {
		return out, err
	}

	data, err := json.Marshal(out)
	if err != nil {
		return out, nil
	}
	if err := c.cli.Set(ctx, key, data, c.ttl).Err(); err != nil {
		level.Warn(c.logger).Log("msg", "cache write failed", "key", key, "err", err)
	}
	return out, nil
}
