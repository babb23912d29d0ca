package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RecipeLine is the quantity of one ingredient consumed by a single unit of a
// menu item.
type RecipeLine struct {
	IngredientID int64           `json:"ingredientId" validate:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// MenuItem is a sellable product composed from a recipe of ingredients.
type MenuItem struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Ingredients []RecipeLine    `json:"ingredients"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// StockCheckResult splits a recipe into lines the inventory can and cannot cover.
type StockCheckResult struct {
	Sufficient      bool        `json:"sufficient"`
	Shortages       []Shortage  `json:"shortages"`
	SufficientLines []StockLine `json:"sufficientLines"`
}

// Validate reports whether the menu item can be stored.
func (m *MenuItem) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(m.Name) == "" {
		fields["name"] = "is required"
	}
	if m.Price.IsNegative() {
		fields["price"] = "must not be negative"
	}
	if len(m.Ingredients) == 0 {
		fields["ingredients"] = "must contain at least one ingredient"
	}
	for _, line := range m.Ingredients {
		if !line.Quantity.IsPositive() {
			fields["ingredients"] = "every quantity must be positive"
			break
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// CostOfIngredients sums recipe quantity times current unit price. Lines whose
// ingredient is missing from inv contribute zero; see MissingIngredients.
func (m *MenuItem) CostOfIngredients(inv Inventory) decimal.Decimal {
	cost := decimal.Zero
	for _, line := range m.Ingredients {
		ing, ok := inv[line.IngredientID]
		if !ok {
			continue
		}
		cost = cost.Add(line.Quantity.Mul(ing.UnitPrice))
	}
	return cost
}

// MissingIngredients lists recipe ingredient ids absent from inv.
func (m *MenuItem) MissingIngredients(inv Inventory) []int64 {
	var missing []int64
	for _, line := range m.Ingredients {
		if _, ok := inv[line.IngredientID]; !ok {
			missing = append(missing, line.IngredientID)
		}
	}
	return missing
}

func (m *MenuItem) ProfitMargin(inv Inventory) decimal.Decimal {
	return m.Price.Sub(m.CostOfIngredients(inv))
}

// Requirements returns the recipe scaled by multiplier units.
func (m *MenuItem) Requirements(multiplier decimal.Decimal) []RecipeLine {
	out := make([]RecipeLine, 0, len(m.Ingredients))
	for _, line := range m.Ingredients {
		out = append(out, RecipeLine{
			IngredientID: line.IngredientID,
			Quantity:     line.Quantity.Mul(multiplier),
		})
	}
	return out
}

// StockCheck verifies inv can produce multiplier units.
func (m *MenuItem) StockCheck(inv Inventory, multiplier int64) StockCheckResult {
	return CheckRequirements(inv, m.Requirements(decimal.NewFromInt(multiplier)))
}

// CheckRequirements compares each required line against inv. An ingredient
// missing from inv is a shortage with zero available.
func CheckRequirements(inv Inventory, lines []RecipeLine) StockCheckResult {
	res := StockCheckResult{
		Shortages:       []Shortage{},
		SufficientLines: []StockLine{},
	}
	for _, line := range lines {
		entry := StockLine{
			IngredientID: line.IngredientID,
			Required:     line.Quantity,
			Available:    decimal.Zero,
		}
		ing, ok := inv[line.IngredientID]
		if ok {
			entry.Name = ing.Name
			entry.Available = ing.Quantity
		}
		if !ok || ing.Quantity.LessThan(line.Quantity) {
			res.Shortages = append(res.Shortages, entry)
			continue
		}
		res.SufficientLines = append(res.SufficientLines, entry)
	}
	res.Sufficient = len(res.Shortages) == 0
	return res
}

// MaxProducibleUnits is the number of whole units inv can produce.
func (m *MenuItem) MaxProducibleUnits(inv Inventory) int64 {
	if len(m.Ingredients) == 0 {
		return 0
	}
	var units int64 = -1
	for _, line := range m.Ingredients {
		ing, ok := inv[line.IngredientID]
		if !ok || !line.Quantity.IsPositive() {
			return 0
		}
		n := ing.Quantity.Div(line.Quantity).Floor().IntPart()
		if units < 0 || n < units {
			units = n
		}
	}
	if units < 0 {
		return 0
	}
	return units
}

// AddIngredientLine appends a recipe line, replacing the quantity when the
// ingredient is already present.
func (m *MenuItem) AddIngredientLine(ingredientID int64, qty decimal.Decimal, now time.Time) error {
	if !qty.IsPositive() {
		return NewValidationError("quantity", "must be positive")
	}
	for i := range m.Ingredients {
		if m.Ingredients[i].IngredientID == ingredientID {
			m.Ingredients[i].Quantity = qty
			m.UpdatedAt = now
			return nil
		}
	}
	m.Ingredients = append(m.Ingredients, RecipeLine{IngredientID: ingredientID, Quantity: qty})
	m.UpdatedAt = now
	return nil
}

// RemoveIngredientLine drops the line for ingredientID. It reports whether a
// line was removed.
func (m *MenuItem) RemoveIngredientLine(ingredientID int64, now time.Time) bool {
	for i := range m.Ingredients {
		if m.Ingredients[i].IngredientID == ingredientID {
			m.Ingredients = append(m.Ingredients[:i], m.Ingredients[i+1:]...)
			m.UpdatedAt = now
			return true
		}
	}
	return false
}

// SetIngredientLineQuantity updates an existing line. A quantity of zero or
// less removes the line.
func (m *MenuItem) SetIngredientLineQuantity(ingredientID int64, qty decimal.Decimal, now time.Time) error {
	if !qty.IsPositive() {
		m.RemoveIngredientLine(ingredientID, now)
		return nil
	}
	for i := range m.Ingredients {
		if m.Ingredients[i].IngredientID == ingredientID {
			m.Ingredients[i].Quantity = qty
			m.UpdatedAt = now
			return nil
		}
	}
	return ErrNotFound
}

// MenuItemRequest creates or replaces a menu item. Active defaults to true.
type MenuItemRequest struct {
	Name        string          `json:"name" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Ingredients []RecipeLine    `json:"ingredients" validate:"required,min=1,dive"`
	Active      *bool           `json:"active"`
}
