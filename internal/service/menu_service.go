package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Lixing-Zhang/foodstand-backend/internal/locker"
	"github.com/Lixing-Zhang/foodstand-backend/internal/models"
	"github.com/Lixing-Zhang/foodstand-backend/internal/opday"
	"github.com/Lixing-Zhang/foodstand-backend/internal/repository"
	"github.com/shopspring/decimal"
)

// MenuItemDetails is a menu item priced and checked against the current stock.
type MenuItemDetails struct {
	Item               models.MenuItem         `json:"item"`
	Cost               decimal.Decimal         `json:"cost"`
	Margin             decimal.Decimal         `json:"margin"`
	MaxProducible      int64                   `json:"maxProducible"`
	StockCheck         models.StockCheckResult `json:"stockCheck"`
	MissingIngredients []int64                 `json:"missingIngredients,omitempty"`
}

// Availability is how many units of an active menu item the stock can make.
type Availability struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	MaxProducible int64           `json:"maxProducible"`
	Available     bool            `json:"available"`
}

// MenuService manages menu items and their recipes.
type MenuService struct {
	store  repository.Store
	locker locker.Locker
	clock  *opday.Clock
	logger *slog.Logger
}

// NewMenuService creates a new menu service
func NewMenuService(store repository.Store, l locker.Locker, clock *opday.Clock, logger *slog.Logger) *MenuService {
	return &MenuService{
		store:  store,
		locker: l,
		clock:  clock,
		logger: logger.With("component", "menu_service"),
	}
}

func (s *MenuService) Create(ctx context.Context, req models.MenuItemRequest) (*models.MenuItem, error) {
	now := s.clock.Now()
	item, err := menuItemFromRequest(req, now)
	if err != nil {
		return nil, err
	}
	item.CreatedAt = now

	err = withLock(ctx, s.locker, func() error {
		if err := s.checkRecipe(ctx, item); err != nil {
			return err
		}
		menu, err := s.store.GetMenuItems(ctx)
		if err != nil {
			return persistErr("load menu items", err)
		}
		item.ID = nextID(menu, menuItemID)
		if err := s.store.SaveMenuItems(ctx, append(menu, item)); err != nil {
			return persistErr("save menu items", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("menu item created", "menu_item_id", item.ID, "name", item.Name)
	return &item, nil
}

// Update replaces menu item id, recipe included.
func (s *MenuService) Update(ctx context.Context, id int64, req models.MenuItemRequest) (*models.MenuItem, error) {
	next, err := menuItemFromRequest(req, s.clock.Now())
	if err != nil {
		return nil, err
	}

	var out *models.MenuItem
	err = withLock(ctx, s.locker, func() error {
		if err := s.checkRecipe(ctx, next); err != nil {
			return err
		}
		menu, err := s.store.GetMenuItems(ctx)
		if err != nil {
			return persistErr("load menu items", err)
		}
		i := indexOf(menu, menuItemID, id)
		if i < 0 {
			return notFound("menu item", id)
		}

		next.ID = id
		next.CreatedAt = menu[i].CreatedAt
		menu[i] = next
		if err := s.store.SaveMenuItems(ctx, menu); err != nil {
			return persistErr("save menu items", err)
		}
		out = &menu[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MenuService) Delete(ctx context.Context, id int64) error {
	err := withLock(ctx, s.locker, func() error {
		menu, err := s.store.GetMenuItems(ctx)
		if err != nil {
			return persistErr("load menu items", err)
		}
		i := indexOf(menu, menuItemID, id)
		if i < 0 {
			return notFound("menu item", id)
		}
		if err := s.store.SaveMenuItems(ctx, append(menu[:i], menu[i+1:]...)); err != nil {
			return persistErr("save menu items", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("menu item deleted", "menu_item_id", id)
	return nil
}

func (s *MenuService) Get(ctx context.Context, id int64) (*models.MenuItem, error) {
	menu, err := s.List(ctx, false)
	if err != nil {
		return nil, err
	}
	i := indexOf(menu, menuItemID, id)
	if i < 0 {
		return nil, notFound("menu item", id)
	}
	return &menu[i], nil
}

// List returns the menu, optionally restricted to active items.
func (s *MenuService) List(ctx context.Context, activeOnly bool) ([]models.MenuItem, error) {
	menu, err := s.store.GetMenuItems(ctx)
	if err != nil {
		return nil, persistErr("load menu items", err)
	}
	if !activeOnly {
		return menu, nil
	}
	out := []models.MenuItem{}
	for _, m := range menu {
		if m.Active {
			out = append(out, m)
		}
	}
	return out, nil
}

// Search matches query case-insensitively against item names and descriptions.
func (s *MenuService) Search(ctx context.Context, query string, activeOnly bool) ([]models.MenuItem, error) {
	menu, err := s.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	out := []models.MenuItem{}
	for _, m := range menu {
		if matchesQuery(m.Name, query) || matchesQuery(m.Description, query) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Details prices menu item id against the current inventory.
func (s *MenuService) Details(ctx context.Context, id int64) (*MenuItemDetails, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ingredients, err := s.store.GetIngredients(ctx)
	if err != nil {
		return nil, persistErr("load ingredients", err)
	}
	inv := models.NewInventory(ingredients)

	missing := item.MissingIngredients(inv)
	if len(missing) > 0 {
		s.logger.Warn("recipe references missing ingredients", "menu_item_id", item.ID, "ingredient_ids", missing)
	}

	return &MenuItemDetails{
		Item:               *item,
		Cost:               item.CostOfIngredients(inv),
		Margin:             item.ProfitMargin(inv),
		MaxProducible:      item.MaxProducibleUnits(inv),
		StockCheck:         item.StockCheck(inv, 1),
		MissingIngredients: missing,
	}, nil
}

// Availability reports producible units for every active menu item.
func (s *MenuService) Availability(ctx context.Context) ([]Availability, error) {
	menu, err := s.List(ctx, true)
	if err != nil {
		return nil, err
	}
	ingredients, err := s.store.GetIngredients(ctx)
	if err != nil {
		return nil, persistErr("load ingredients", err)
	}
	inv := models.NewInventory(ingredients)

	out := make([]Availability, 0, len(menu))
	for _, m := range menu {
		n := m.MaxProducibleUnits(inv)
		out = append(out, Availability{
			ID:            m.ID,
			Name:          m.Name,
			Price:         m.Price,
			MaxProducible: n,
			Available:     n > 0,
		})
	}
	return out, nil
}

// checkRecipe rejects recipes naming ingredients that do not exist.
func (s *MenuService) checkRecipe(ctx context.Context, item models.MenuItem) error {
	ingredients, err := s.store.GetIngredients(ctx)
	if err != nil {
		return persistErr("load ingredients", err)
	}
	missing := item.MissingIngredients(models.NewInventory(ingredients))
	if len(missing) > 0 {
		return models.NewValidationError("ingredients", fmt.Sprintf("unknown ingredient ids %v", missing))
	}
	return nil
}

func menuItemFromRequest(req models.MenuItemRequest, now time.Time) (models.MenuItem, error) {
	if err := validateStruct(req); err != nil {
		return models.MenuItem{}, err
	}

	item := models.MenuItem{
		Name:        strings.TrimSpace(req.Name),
		Price:       req.Price,
		Description: strings.TrimSpace(req.Description),
		Active:      req.Active == nil || *req.Active,
	}
	for i, line := range req.Ingredients {
		if err := item.AddIngredientLine(line.IngredientID, line.Quantity, now); err != nil {
			return models.MenuItem{}, models.NewValidationError(fmt.Sprintf("ingredients[%d].quantity", i), "must be positive")
		}
	}
	item.UpdatedAt = now
	if err := item.Validate(); err != nil {
		return models.MenuItem{}, err
	}
	return item, nil
}
