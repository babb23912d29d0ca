package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Lixing-Zhang/foodstand-backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 3, 10, 18, 30, 0, 0, time.UTC)

func sampleIngredients() []models.Ingredient {
	return []models.Ingredient{
		{ID: 1, Name: "bun", Quantity: decimal.RequireFromString("40"), Unit: "pieza", UnitPrice: decimal.RequireFromString("4.5"), CreatedAt: fixedTime, UpdatedAt: fixedTime},
		{ID: 2, Name: "meat", Quantity: decimal.RequireFromString("12.35"), Unit: "kg", UnitPrice: decimal.RequireFromString("150"), CreatedAt: fixedTime, UpdatedAt: fixedTime},
	}
}

func sampleMenu() []models.MenuItem {
	return []models.MenuItem{{
		ID:    1,
		Name:  "Burger",
		Price: decimal.RequireFromString("80"),
		Ingredients: []models.RecipeLine{
			{IngredientID: 1, Quantity: decimal.RequireFromString("1")},
			{IngredientID: 2, Quantity: decimal.RequireFromString("0.2")},
		},
		Active:    true,
		CreatedAt: fixedTime,
		UpdatedAt: fixedTime,
	}}
}

func sampleOrders() []models.Order {
	return []models.Order{{
		ID:           1,
		Reference:    "7f1b6f0e-9d43-4d3e-9a55-2f5b0c1c9b11",
		CustomerName: "Ana",
		Kind:         models.OrderKindMenu,
		LineItems: []models.LineItem{{
			ID: 1, Name: "Burger",
			Quantity:  decimal.NewFromInt(2),
			UnitPrice: decimal.RequireFromString("80"),
			Subtotal:  decimal.RequireFromString("160"),
		}},
		Total:            decimal.RequireFromString("160"),
		Status:           models.StatusPending,
		DayNumber:        1,
		OperatingDayDate: "2024-03-10",
		CreatedAt:        fixedTime,
		UpdatedAt:        fixedTime,
	}}
}

// runStoreContract exercises the behaviour every Store backend must share.
func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty collections", func(t *testing.T) {
		ings, err := store.GetIngredients(ctx)
		require.NoError(t, err)
		assert.Empty(t, ings)

		menu, err := store.GetMenuItems(ctx)
		require.NoError(t, err)
		assert.Empty(t, menu)

		orders, err := store.GetOrders(ctx)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, store.SaveIngredients(ctx, sampleIngredients()))
		require.NoError(t, store.SaveMenuItems(ctx, sampleMenu()))
		require.NoError(t, store.SaveOrders(ctx, sampleOrders()))

		ings, err := store.GetIngredients(ctx)
		require.NoError(t, err)
		require.Len(t, ings, 2)
		assert.Equal(t, "meat", ings[1].Name)
		assert.True(t, ings[1].Quantity.Equal(decimal.RequireFromString("12.35")))
		assert.True(t, ings[1].CreatedAt.Equal(fixedTime))

		menu, err := store.GetMenuItems(ctx)
		require.NoError(t, err)
		require.Len(t, menu, 1)
		require.Len(t, menu[0].Ingredients, 2)
		assert.True(t, menu[0].Ingredients[1].Quantity.Equal(decimal.RequireFromString("0.2")))

		orders, err := store.GetOrders(ctx)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, models.StatusPending, orders[0].Status)
		assert.True(t, orders[0].Total.Equal(decimal.RequireFromString("160")))
		assert.Equal(t, "2024-03-10", orders[0].OperatingDayDate)
	})

	t.Run("save replaces the whole collection", func(t *testing.T) {
		require.NoError(t, store.SaveIngredients(ctx, sampleIngredients()[:1]))

		ings, err := store.GetIngredients(ctx)
		require.NoError(t, err)
		require.Len(t, ings, 1)
		assert.Equal(t, "bun", ings[0].Name)

		require.NoError(t, store.SaveIngredients(ctx, nil))
		ings, err = store.GetIngredients(ctx)
		require.NoError(t, err)
		assert.Empty(t, ings)
	})

	t.Run("callers do not share memory with the store", func(t *testing.T) {
		menu := sampleMenu()
		require.NoError(t, store.SaveMenuItems(ctx, menu))
		menu[0].Ingredients[0].Quantity = decimal.NewFromInt(99)

		got, err := store.GetMenuItems(ctx)
		require.NoError(t, err)
		assert.True(t, got[0].Ingredients[0].Quantity.Equal(decimal.NewFromInt(1)))

		got[0].Name = "changed"
		again, err := store.GetMenuItems(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Burger", again[0].Name)
	})
}

func TestInMemoryStore(t *testing.T) {
	store := NewInMemoryStore()
	defer store.Close()
	runStoreContract(t, store)
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	defer store.Close()

	runStoreContract(t, store)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "temporary file left behind")
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ordersFile), []byte("{not json"), 0o644))

	store, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = store.GetOrders(context.Background())
	assert.Error(t, err)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	store, err := NewPostgresStore(ctx, url)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Migrate(ctx))

	for _, reset := range []func() error{
		func() error { return store.SaveIngredients(ctx, nil) },
		func() error { return store.SaveMenuItems(ctx, nil) },
		func() error { return store.SaveOrders(ctx, nil) },
	} {
		require.NoError(t, reset())
	}

	runStoreContract(t, store)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	client, err := NewRedisClient(ctx, RedisOptions{Addr: addr})
	require.NoError(t, err)

	prefix := "foodstand-test-" + time.Now().Format("150405.000000")
	store := NewRedisStore(client, prefix)
	defer func() {
		client.Del(ctx, store.key(ingredientsTable), store.key(menuItemsTable), store.key(ordersTable))
		store.Close()
	}()

	runStoreContract(t, store)
}
