package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Lixing-Zhang/foodstand-backend/internal/locker"
	"github.com/Lixing-Zhang/foodstand-backend/internal/models"
	"github.com/Lixing-Zhang/foodstand-backend/internal/opday"
	"github.com/Lixing-Zhang/foodstand-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderService places orders and deducts the ingredient stock they consume.
type OrderService struct {
	store  repository.Store
	locker locker.Locker
	clock  *opday.Clock
	logger *slog.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store repository.Store, l locker.Locker, clock *opday.Clock, logger *slog.Logger) *OrderService {
	return &OrderService{
		store:  store,
		locker: l,
		clock:  clock,
		logger: logger.With("component", "order_service"),
	}
}

// PlaceDirectOrder sells ingredients as-is. Every line is verified against
// the stock before anything is deducted.
func (s *OrderService) PlaceDirectOrder(ctx context.Context, req models.DirectOrderRequest) (*models.Order, error) {
	if err := validateDirectOrder(req); err != nil {
		s.logger.Warn("direct order rejected", "reason", err)
		return nil, err
	}

	var order *models.Order
	err := withLock(ctx, s.locker, func() error {
		ingredients, err := s.store.GetIngredients(ctx)
		if err != nil {
			return persistErr("load ingredients", err)
		}
		inv := models.NewInventory(ingredients)

		need := newRequirements()
		items := make([]models.LineItem, 0, len(req.Items))
		for _, it := range req.Items {
			if _, ok := inv[it.IngredientID]; !ok {
				return notFound("ingredient", it.IngredientID)
			}
			need.add(it.IngredientID, it.Quantity)
			items = append(items, models.LineItem{
				ID:        it.IngredientID,
				Name:      strings.TrimSpace(it.Name),
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
				Subtotal:  it.UnitPrice.Mul(it.Quantity),
			})
		}

		if check := models.CheckRequirements(inv, need.lines()); !check.Sufficient {
			return &models.StockError{Shortages: check.Shortages}
		}

		order, err = s.commit(ctx, ingredients, need.lines(), models.Order{
			CustomerName: strings.TrimSpace(req.CustomerName),
			Kind:         models.OrderKindDirect,
			LineItems:    items,
		})
		return err
	})
	if err != nil {
		s.logRejected("direct", err)
		return nil, err
	}
	return order, nil
}

// PlaceMenuOrder expands each line through its menu item's recipe and either
// fulfils the whole order or changes nothing.
func (s *OrderService) PlaceMenuOrder(ctx context.Context, req models.MenuOrderRequest) (*models.Order, error) {
	if err := validateStruct(req); err != nil {
		s.logger.Warn("menu order rejected", "reason", err)
		return nil, err
	}

	var order *models.Order
	err := withLock(ctx, s.locker, func() error {
		menu, err := s.store.GetMenuItems(ctx)
		if err != nil {
			return persistErr("load menu items", err)
		}
		ingredients, err := s.store.GetIngredients(ctx)
		if err != nil {
			return persistErr("load ingredients", err)
		}

		byID := make(map[int64]models.MenuItem, len(menu))
		for _, m := range menu {
			byID[m.ID] = m
		}

		need := newRequirements()
		items := make([]models.LineItem, 0, len(req.Items))
		for _, it := range req.Items {
			item, ok := byID[it.MenuItemID]
			if !ok {
				return notFound("menu item", it.MenuItemID)
			}
			if !item.Active {
				return models.NewValidationError("items", fmt.Sprintf("menu item %d is not active", item.ID))
			}
			qty := decimal.NewFromInt(it.Quantity)
			for _, line := range item.Requirements(qty) {
				need.add(line.IngredientID, line.Quantity)
			}
			items = append(items, models.LineItem{
				ID:        item.ID,
				Name:      item.Name,
				Quantity:  qty,
				UnitPrice: item.Price,
				Subtotal:  item.Price.Mul(qty),
			})
		}

		check := models.CheckRequirements(models.NewInventory(ingredients), need.lines())
		if !check.Sufficient {
			return &models.StockError{Shortages: check.Shortages}
		}

		order, err = s.commit(ctx, ingredients, need.lines(), models.Order{
			CustomerName: strings.TrimSpace(req.CustomerName),
			Kind:         models.OrderKindMenu,
			LineItems:    items,
		})
		return err
	})
	if err != nil {
		s.logRejected("menu", err)
		return nil, err
	}
	return order, nil
}

// commit deducts lines from the ingredient snapshot, numbers the draft order
// and persists both. It must run under the lock with lines already verified.
func (s *OrderService) commit(ctx context.Context, ingredients []models.Ingredient, lines []models.RecipeLine, draft models.Order) (*models.Order, error) {
	now := s.clock.Now()

	updated := make([]models.Ingredient, len(ingredients))
	copy(updated, ingredients)
	for _, line := range lines {
		i := indexOf(updated, ingredientID, line.IngredientID)
		if err := updated[i].Decrease(line.Quantity, now); err != nil {
			return nil, err
		}
	}

	orders, err := s.store.GetOrders(ctx)
	if err != nil {
		return nil, persistErr("load orders", err)
	}

	window := s.clock.WindowFor(now)
	draft.ID = nextID(orders, orderID)
	draft.Reference = uuid.NewString()
	draft.Total = models.SumSubtotals(draft.LineItems)
	draft.Status = models.StatusPending
	draft.DayNumber = dayNumber(orders, window)
	draft.OperatingDayDate = window.Date()
	draft.CreatedAt = now
	draft.UpdatedAt = now

	if err := s.store.SaveIngredients(ctx, updated); err != nil {
		return nil, persistErr("save ingredients", err)
	}
	if err := s.store.SaveOrders(ctx, append(orders, draft)); err != nil {
		if rbErr := s.store.SaveIngredients(ctx, ingredients); rbErr != nil {
			s.logger.Error("failed to restore ingredient stock", "order_id", draft.ID, "error", rbErr)
		}
		return nil, persistErr("save orders", err)
	}

	s.logger.Info("order placed",
		"order_id", draft.ID,
		"kind", draft.Kind,
		"day_number", draft.DayNumber,
		"operating_day", draft.OperatingDayDate,
		"total", draft.Total.String(),
	)
	return &draft, nil
}

// ChangeOrderStatus sets the status of an order. Any transition between known
// statuses is allowed; cancelling does not return stock.
func (s *OrderService) ChangeOrderStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	st, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, status)
	}

	var order *models.Order
	err = withLock(ctx, s.locker, func() error {
		orders, err := s.store.GetOrders(ctx)
		if err != nil {
			return persistErr("load orders", err)
		}
		i := indexOf(orders, orderID, id)
		if i < 0 {
			return notFound("order", id)
		}

		orders[i].Status = st
		orders[i].UpdatedAt = s.clock.Now()
		if err := s.store.SaveOrders(ctx, orders); err != nil {
			return persistErr("save orders", err)
		}
		order = &orders[i]
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed", "order_id", id, "status", st)
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	orders, err := s.store.GetOrders(ctx)
	if err != nil {
		return nil, persistErr("load orders", err)
	}
	i := indexOf(orders, orderID, id)
	if i < 0 {
		return nil, notFound("order", id)
	}
	return &orders[i], nil
}

func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.store.GetOrders(ctx)
	if err != nil {
		return nil, persistErr("load orders", err)
	}
	return orders, nil
}

// ListOrdersForDay returns the orders of the operating day that started on
// date (YYYY-MM-DD). An empty date or "today" means the current one.
func (s *OrderService) ListOrdersForDay(ctx context.Context, date string) ([]models.Order, error) {
	window := s.clock.Window()
	if date != "" && date != "today" {
		w, err := s.clock.DayWindow(date)
		if err != nil {
			return nil, models.NewValidationError("day", "must be a date formatted as "+opday.DateLayout)
		}
		window = w
	}

	orders, err := s.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return ordersIn(orders, window), nil
}

func (s *OrderService) logRejected(kind string, err error) {
	if errors.Is(err, models.ErrPersistence) {
		s.logger.Error("order failed", "kind", kind, "error", err)
		return
	}
	s.logger.Warn("order rejected", "kind", kind, "reason", err)
}

func validateDirectOrder(req models.DirectOrderRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	fields := map[string]string{}
	if strings.TrimSpace(req.CustomerName) == "" {
		fields["customerName"] = "is required"
	}
	for i, it := range req.Items {
		if strings.TrimSpace(it.Name) == "" {
			fields[fmt.Sprintf("items[%d].name", i)] = "is required"
		}
		if !it.Quantity.IsPositive() {
			fields[fmt.Sprintf("items[%d].quantity", i)] = "must be positive"
		}
		if it.UnitPrice.IsNegative() {
			fields[fmt.Sprintf("items[%d].unitPrice", i)] = "must not be negative"
		}
	}
	if len(fields) > 0 {
		return &models.ValidationError{Fields: fields}
	}
	return nil
}

// dayNumber is one more than the number of orders created inside window.
func dayNumber(orders []models.Order, window opday.Window) int {
	n := 0
	for _, o := range orders {
		if window.Contains(o.CreatedAt) {
			n++
		}
	}
	return n + 1
}

func ordersIn(orders []models.Order, window opday.Window) []models.Order {
	out := []models.Order{}
	for _, o := range orders {
		if window.Contains(o.CreatedAt) {
			out = append(out, o)
		}
	}
	return out
}

// requirements sums ingredient quantities, keeping first-seen order.
type requirements struct {
	ids []int64
	qty map[int64]decimal.Decimal
}

func newRequirements() *requirements {
	return &requirements{qty: map[int64]decimal.Decimal{}}
}

func (r *requirements) add(id int64, q decimal.Decimal) {
	cur, ok := r.qty[id]
	if !ok {
		r.ids = append(r.ids, id)
		cur = decimal.Zero
	}
	r.qty[id] = cur.Add(q)
}

func (r *requirements) lines() []models.RecipeLine {
	out := make([]models.RecipeLine, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, models.RecipeLine{IngredientID: id, Quantity: r.qty[id]})
	}
	return out
}
