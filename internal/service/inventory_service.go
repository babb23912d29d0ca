package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Lixing-Zhang/foodstand-backend/internal/locker"
	"github.com/Lixing-Zhang/foodstand-backend/internal/models"
	"github.com/Lixing-Zhang/foodstand-backend/internal/opday"
	"github.com/Lixing-Zhang/foodstand-backend/internal/repository"
	"github.com/shopspring/decimal"
)

// InventoryService manages the ingredient collection.
type InventoryService struct {
	store     repository.Store
	locker    locker.Locker
	clock     *opday.Clock
	threshold decimal.Decimal
	logger    *slog.Logger
}

// NewInventoryService creates a new inventory service. lowStock is the
// default threshold used by LowStock.
func NewInventoryService(store repository.Store, l locker.Locker, clock *opday.Clock, lowStock decimal.Decimal, logger *slog.Logger) *InventoryService {
	return &InventoryService{
		store:     store,
		locker:    l,
		clock:     clock,
		threshold: lowStock,
		logger:    logger.With("component", "inventory_service"),
	}
}

func (s *InventoryService) Create(ctx context.Context, req models.IngredientRequest) (*models.Ingredient, error) {
	now := s.clock.Now()
	ing, err := ingredientFromRequest(req)
	if err != nil {
		return nil, err
	}
	ing.CreatedAt = now
	ing.UpdatedAt = now

	err = withLock(ctx, s.locker, func() error {
		items, err := s.store.GetIngredients(ctx)
		if err != nil {
			return persistErr("load ingredients", err)
		}
		ing.ID = nextID(items, ingredientID)
		if err := s.store.SaveIngredients(ctx, append(items, ing)); err != nil {
			return persistErr("save ingredients", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ingredient created", "ingredient_id", ing.ID, "name", ing.Name)
	return &ing, nil
}

// Update replaces every editable field of ingredient id. Stock and price go
// through SetQuantity and SetPrice.
func (s *InventoryService) Update(ctx context.Context, id int64, req models.IngredientRequest) (*models.Ingredient, error) {
	next, err := ingredientFromRequest(req)
	if err != nil {
		return nil, err
	}

	var out *models.Ingredient
	err = withLock(ctx, s.locker, func() error {
		items, err := s.store.GetIngredients(ctx)
		if err != nil {
			return persistErr("load ingredients", err)
		}
		i := indexOf(items, ingredientID, id)
		if i < 0 {
			return notFound("ingredient", id)
		}

		now := s.clock.Now()
		updated := items[i]
		updated.Name = next.Name
		updated.Unit = next.Unit
		if err := updated.SetQuantity(req.Quantity, now); err != nil {
			return err
		}
		if err := updated.SetPrice(req.UnitPrice, now); err != nil {
			return err
		}
		items[i] = updated
		if err := s.store.SaveIngredients(ctx, items); err != nil {
			return persistErr("save ingredients", err)
		}
		out = &items[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes ingredient id. Menu items still referencing it are logged;
// their recipes keep the dangling line.
func (s *InventoryService) Delete(ctx context.Context, id int64) error {
	err := withLock(ctx, s.locker, func() error {
		items, err := s.store.GetIngredients(ctx)
		if err != nil {
			return persistErr("load ingredients", err)
		}
		i := indexOf(items, ingredientID, id)
		if i < 0 {
			return notFound("ingredient", id)
		}
		if err := s.store.SaveIngredients(ctx, append(items[:i], items[i+1:]...)); err != nil {
			return persistErr("save ingredients", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("ingredient deleted", "ingredient_id", id)
	if menu, err := s.store.GetMenuItems(ctx); err == nil {
		var users []int64
		for _, m := range menu {
			for _, line := range m.Ingredients {
				if line.IngredientID == id {
					users = append(users, m.ID)
					break
				}
			}
		}
		if len(users) > 0 {
			s.logger.Warn("deleted ingredient is still used by menu items", "ingredient_id", id, "menu_item_ids", users)
		}
	}
	return nil
}

func (s *InventoryService) Get(ctx context.Context, id int64) (*models.Ingredient, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(items, ingredientID, id)
	if i < 0 {
		return nil, notFound("ingredient", id)
	}
	return &items[i], nil
}

func (s *InventoryService) List(ctx context.Context) ([]models.Ingredient, error) {
	items, err := s.store.GetIngredients(ctx)
	if err != nil {
		return nil, persistErr("load ingredients", err)
	}
	return items, nil
}

// Search matches query case-insensitively against ingredient names.
func (s *InventoryService) Search(ctx context.Context, query string) ([]models.Ingredient, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Ingredient{}
	for _, it := range items {
		if matchesQuery(it.Name, query) {
			out = append(out, it)
		}
	}
	return out, nil
}

// LowStock lists ingredients at or below threshold, or below the configured
// default when threshold is not valid.
func (s *InventoryService) LowStock(ctx context.Context, threshold decimal.NullDecimal) ([]models.Ingredient, error) {
	limit := s.threshold
	if threshold.Valid {
		limit = threshold.Decimal
	}

	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Ingredient{}
	for _, it := range items {
		if it.IsLowStock(limit) {
			out = append(out, it)
		}
	}
	return out, nil
}

// Restock adds a positive amount to ingredient id.
func (s *InventoryService) Restock(ctx context.Context, id int64, amount decimal.Decimal) (*models.Ingredient, error) {
	if !amount.IsPositive() {
		return nil, models.NewValidationError("amount", "must be positive")
	}

	var out *models.Ingredient
	err := withLock(ctx, s.locker, func() error {
		items, err := s.store.GetIngredients(ctx)
		if err != nil {
			return persistErr("load ingredients", err)
		}
		i := indexOf(items, ingredientID, id)
		if i < 0 {
			return notFound("ingredient", id)
		}
		if err := items[i].Increase(amount, s.clock.Now()); err != nil {
			return err
		}
		if err := s.store.SaveIngredients(ctx, items); err != nil {
			return persistErr("save ingredients", err)
		}
		out = &items[i]
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ingredient restocked", "ingredient_id", id, "amount", amount.String(), "quantity", out.Quantity.String())
	return out, nil
}

func ingredientFromRequest(req models.IngredientRequest) (models.Ingredient, error) {
	if err := validateStruct(req); err != nil {
		return models.Ingredient{}, err
	}
	unit := strings.TrimSpace(req.Unit)
	ing := models.Ingredient{
		Name:      strings.TrimSpace(req.Name),
		Quantity:  models.RoundQuantity(req.Quantity, unit),
		Unit:      unit,
		UnitPrice: req.UnitPrice,
	}
	if err := ing.Validate(); err != nil {
		return models.Ingredient{}, err
	}
	return ing, nil
}
