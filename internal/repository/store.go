package repository

import (
	"context"
	"sync"

	"github.com/Lixing-Zhang/foodstand-backend/internal/models"
)

// Store reads and replaces whole collections. Every Save overwrites the stored
// collection with the given slice; nothing is transactional across
// collections.
type Store interface {
	GetIngredients(ctx context.Context) ([]models.Ingredient, error)
	SaveIngredients(ctx context.Context, items []models.Ingredient) error
	GetMenuItems(ctx context.Context) ([]models.MenuItem, error)
	SaveMenuItems(ctx context.Context, items []models.MenuItem) error
	GetOrders(ctx context.Context) ([]models.Order, error)
	SaveOrders(ctx context.Context, orders []models.Order) error
	Close() error
}

// Pinger is implemented by stores backed by a network service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// InMemoryStore implements Store with in-process slices. Reads and writes
// copy so callers never share backing arrays with the store.
type InMemoryStore struct {
	mu          sync.RWMutex
	ingredients []models.Ingredient
	menuItems   []models.MenuItem
	orders      []models.Order
}

// NewInMemoryStore creates an empty in-memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) GetIngredients(ctx context.Context) ([]models.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneIngredients(s.ingredients), nil
}

func (s *InMemoryStore) SaveIngredients(ctx context.Context, items []models.Ingredient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ingredients = cloneIngredients(items)
	return nil
}

func (s *InMemoryStore) GetMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMenuItems(s.menuItems), nil
}

func (s *InMemoryStore) SaveMenuItems(ctx context.Context, items []models.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menuItems = cloneMenuItems(items)
	return nil
}

func (s *InMemoryStore) GetOrders(ctx context.Context) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOrders(s.orders), nil
}

func (s *InMemoryStore) SaveOrders(ctx context.Context, orders []models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = cloneOrders(orders)
	return nil
}

func (s *InMemoryStore) Close() error {
	return nil
}

func cloneIngredients(in []models.Ingredient) []models.Ingredient {
	out := make([]models.Ingredient, len(in))
	copy(out, in)
	return out
}

func cloneMenuItems(in []models.MenuItem) []models.MenuItem {
	out := make([]models.MenuItem, len(in))
	for i, m := range in {
		m.Ingredients = append([]models.RecipeLine(nil), m.Ingredients...)
		out[i] = m
	}
	return out
}

func cloneOrders(in []models.Order) []models.Order {
	out := make([]models.Order, len(in))
	for i, o := range in {
		o.LineItems = append([]models.LineItem(nil), o.LineItems...)
		out[i] = o
	}
	return out
}
