package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/Lixing-Zhang/foodstand-backend/internal/models"
)

const (
	ingredientsFile = "ingredients.json"
	menuItemsFile   = "menu_items.json"
	ordersFile      = "orders.json"
)

// FileStore keeps each collection in its own JSON file under a directory.
// Files are replaced atomically with a rename.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) GetIngredients(ctx context.Context) ([]models.Ingredient, error) {
	return readCollection[models.Ingredient](s, ingredientsFile)
}

func (s *FileStore) SaveIngredients(ctx context.Context, items []models.Ingredient) error {
	return writeCollection(s, ingredientsFile, items)
}

func (s *FileStore) GetMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	return readCollection[models.MenuItem](s, menuItemsFile)
}

func (s *FileStore) SaveMenuItems(ctx context.Context, items []models.MenuItem) error {
	return writeCollection(s, menuItemsFile, items)
}

func (s *FileStore) GetOrders(ctx context.Context) ([]models.Order, error) {
	return readCollection[models.Order](s, ordersFile)
}

func (s *FileStore) SaveOrders(ctx context.Context, orders []models.Order) error {
	return writeCollection(s, ordersFile, orders)
}

func (s *FileStore) Close() error {
	return nil
}

func readCollection[T any](s *FileStore, name string) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	items := []T{}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return items, nil
}

func writeCollection[T any](s *FileStore, name string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
