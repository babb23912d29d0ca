package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Lixing-Zhang/foodstand-backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	ingredientsTable = "ingredients"
	menuItemsTable   = "menu_items"
	ordersTable      = "orders"
)

// PostgresStore keeps each collection in a table of JSONB documents keyed by
// record id.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to connString and verifies the connection.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Migrate creates the collection tables when they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, table := range []string{ingredientsTable, menuItemsTable, ordersTable} {
		stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGINT PRIMARY KEY,
			doc JSONB NOT NULL,
			saved_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`, table)
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration for %s: %w", table, err)
		}
	}
	return nil
}

func (s *PostgresStore) GetIngredients(ctx context.Context) ([]models.Ingredient, error) {
	return loadDocs[models.Ingredient](ctx, s.pool, ingredientsTable)
}

func (s *PostgresStore) SaveIngredients(ctx context.Context, items []models.Ingredient) error {
	return replaceDocs(ctx, s.pool, ingredientsTable, items, func(i models.Ingredient) int64 { return i.ID })
}

func (s *PostgresStore) GetMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	return loadDocs[models.MenuItem](ctx, s.pool, menuItemsTable)
}

func (s *PostgresStore) SaveMenuItems(ctx context.Context, items []models.MenuItem) error {
	return replaceDocs(ctx, s.pool, menuItemsTable, items, func(m models.MenuItem) int64 { return m.ID })
}

func (s *PostgresStore) GetOrders(ctx context.Context) ([]models.Order, error) {
	return loadDocs[models.Order](ctx, s.pool, ordersTable)
}

func (s *PostgresStore) SaveOrders(ctx context.Context, orders []models.Order) error {
	return replaceDocs(ctx, s.pool, ordersTable, orders, func(o models.Order) int64 { return o.ID })
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func loadDocs[T any](ctx context.Context, pool *pgxpool.Pool, table string) ([]T, error) {
	rows, err := pool.Query(ctx, fmt.Sprintf("SELECT doc FROM %s ORDER BY id", table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", table, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return items, nil
}

func replaceDocs[T any](ctx context.Context, pool *pgxpool.Pool, table string, items []T, id func(T) int64) error {
	batch := &pgx.Batch{}
	insert := fmt.Sprintf("INSERT INTO %s (id, doc) VALUES ($1, $2)", table)
	for _, item := range items {
		doc, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode %s row: %w", table, err)
		}
		batch.Queue(insert, id(item), doc)
	}

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
		if batch.Len() == 0 {
			return nil
		}
		br := tx.SendBatch(ctx, batch)
		for range items {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert into %s: %w", table, err)
			}
		}
		return br.Close()
	})
}
