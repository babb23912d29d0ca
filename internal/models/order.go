package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus validates s against the known statuses.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case StatusPending, StatusPaid, StatusCancelled:
		return st, nil
	}
	return "", ErrInvalidStatus
}

// OrderKind tells which placement path created an order.
type OrderKind string

const (
	OrderKindDirect OrderKind = "direct"
	OrderKindMenu   OrderKind = "menu"
)

// LineItem is a snapshot of what was sold. ID references an Ingredient for
// direct orders and a MenuItem for menu orders.
type LineItem struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Order is an immutable sales record; only Status changes after creation.
type Order struct {
	ID               int64           `json:"id"`
	Reference        string          `json:"reference"`
	CustomerName     string          `json:"customerName"`
	Kind             OrderKind       `json:"kind"`
	LineItems        []LineItem      `json:"lineItems"`
	Total            decimal.Decimal `json:"total"`
	Status           OrderStatus     `json:"status"`
	DayNumber        int             `json:"dayNumber"`
	OperatingDayDate string          `json:"operatingDayDate"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// SumSubtotals adds up the line subtotals.
func SumSubtotals(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// DirectOrderRequest places an order whose lines name ingredients directly.
type DirectOrderRequest struct {
	CustomerName string            `json:"customerName" validate:"required"`
	Items        []DirectOrderItem `json:"items" validate:"required,min=1,dive"`
}

// DirectOrderItem is one line of a direct order.
type DirectOrderItem struct {
	IngredientID int64           `json:"ingredientId" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
}

// MenuOrderRequest places an order for menu items.
type MenuOrderRequest struct {
	CustomerName string          `json:"customerName"`
	Items        []MenuOrderItem `json:"items" validate:"required,min=1,dive"`
}

// MenuOrderItem is one line of a menu order.
type MenuOrderItem struct {
	MenuItemID int64 `json:"menuItemId" validate:"required"`
	Quantity   int64 `json:"quantity" validate:"gt=0"`
}

// StatusRequest changes the status of an order.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}
