package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Lixing-Zhang/foodstand-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis connection used by RedisStore and the
// distributed locker.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

// RedisStore keeps each collection as a JSON array under its own key.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps client. The store owns the client and closes it on Close.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(collection string) string {
	if s.prefix == "" {
		return collection
	}
	return s.prefix + ":" + collection
}

func (s *RedisStore) GetIngredients(ctx context.Context) ([]models.Ingredient, error) {
	return getCollection[models.Ingredient](ctx, s.client, s.key(ingredientsTable))
}

func (s *RedisStore) SaveIngredients(ctx context.Context, items []models.Ingredient) error {
	return setCollection(ctx, s.client, s.key(ingredientsTable), items)
}

func (s *RedisStore) GetMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	return getCollection[models.MenuItem](ctx, s.client, s.key(menuItemsTable))
}

func (s *RedisStore) SaveMenuItems(ctx context.Context, items []models.MenuItem) error {
	return setCollection(ctx, s.client, s.key(menuItemsTable), items)
}

func (s *RedisStore) GetOrders(ctx context.Context) ([]models.Order, error) {
	return getCollection[models.Order](ctx, s.client, s.key(ordersTable))
}

func (s *RedisStore) SaveOrders(ctx context.Context, orders []models.Order) error {
	return setCollection(ctx, s.client, s.key(ordersTable), orders)
}

// Ping checks the redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func getCollection[T any](ctx context.Context, client *redis.Client, key string) ([]T, error) {
	data, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	items := []T{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return items, nil
}

func setCollection[T any](ctx context.Context, client *redis.Client, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
