package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Ingredient is a raw-ingredient inventory line.
type Ingredient struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

var literUnits = map[string]bool{
	"l": true, "lt": true, "lts": true,
	"litro": true, "litros": true,
	"liter": true, "liters": true,
	"litre": true, "litres": true,
}

func isMilliliter(unit string) bool {
	return unit == "ml" ||
		strings.Contains(unit, "mililit") ||
		strings.Contains(unit, "millilit")
}

// QuantityPlaces returns the number of decimal places kept for a quantity
// measured in unit.
func QuantityPlaces(unit string) int32 {
	u := strings.ToLower(strings.TrimSpace(unit))
	switch {
	case isMilliliter(u):
		return 1
	case strings.Contains(u, "kg"), literUnits[u]:
		return 2
	default:
		return 2
	}
}

// RoundQuantity applies the unit-keyed rounding policy. Rounding is half away
// from zero and idempotent.
func RoundQuantity(q decimal.Decimal, unit string) decimal.Decimal {
	return q.Round(QuantityPlaces(unit))
}

// Validate reports whether the ingredient can be stored.
func (i *Ingredient) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(i.Name) == "" {
		fields["name"] = "is required"
	}
	if strings.TrimSpace(i.Unit) == "" {
		fields["unit"] = "is required"
	}
	if i.Quantity.IsNegative() {
		fields["quantity"] = "must not be negative"
	}
	if i.UnitPrice.IsNegative() {
		fields["unitPrice"] = "must not be negative"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// HasSufficientStock reports whether amount can be taken from the current stock.
func (i *Ingredient) HasSufficientStock(amount decimal.Decimal) bool {
	return i.Quantity.GreaterThanOrEqual(amount)
}

// Decrease takes amount from the stock. The quantity is left unchanged on error.
func (i *Ingredient) Decrease(amount decimal.Decimal, now time.Time) error {
	if amount.IsNegative() {
		return NewValidationError("amount", "must not be negative")
	}
	if !i.HasSufficientStock(amount) {
		return &StockError{Shortages: []Shortage{{
			IngredientID: i.ID,
			Name:         i.Name,
			Required:     amount,
			Available:    i.Quantity,
		}}}
	}
	i.Quantity = RoundQuantity(i.Quantity.Sub(amount), i.Unit)
	i.UpdatedAt = now
	return nil
}

// Increase adds amount to the stock.
func (i *Ingredient) Increase(amount decimal.Decimal, now time.Time) error {
	if amount.IsNegative() {
		return NewValidationError("amount", "must not be negative")
	}
	i.Quantity = RoundQuantity(i.Quantity.Add(amount), i.Unit)
	i.UpdatedAt = now
	return nil
}

func (i *Ingredient) SetQuantity(q decimal.Decimal, now time.Time) error {
	if q.IsNegative() {
		return NewValidationError("quantity", "must not be negative")
	}
	i.Quantity = RoundQuantity(q, i.Unit)
	i.UpdatedAt = now
	return nil
}

func (i *Ingredient) SetPrice(p decimal.Decimal, now time.Time) error {
	if p.IsNegative() {
		return NewValidationError("unitPrice", "must not be negative")
	}
	i.UnitPrice = p
	i.UpdatedAt = now
	return nil
}

// IsLowStock reports whether the stock is at or below threshold.
func (i *Ingredient) IsLowStock(threshold decimal.Decimal) bool {
	return i.Quantity.LessThanOrEqual(threshold)
}

// Inventory is an id-indexed snapshot of the ingredient collection.
type Inventory map[int64]Ingredient

// NewInventory indexes items by id.
func NewInventory(items []Ingredient) Inventory {
	inv := make(Inventory, len(items))
	for _, it := range items {
		inv[it.ID] = it
	}
	return inv
}

// IngredientRequest creates or replaces an ingredient.
type IngredientRequest struct {
	Name      string          `json:"name" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit" validate:"required"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// RestockRequest adds Amount to an ingredient's stock.
type RestockRequest struct {
	Amount decimal.Decimal `json:"amount"`
}
