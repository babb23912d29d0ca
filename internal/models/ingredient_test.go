package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRoundQuantity(t *testing.T) {
	tests := []struct {
		name string
		q    string
		unit string
		want string
	}{
		{name: "kilograms keep two places", q: "14.8049", unit: "kg", want: "14.8"},
		{name: "kilograms round half up", q: "0.125", unit: "Kg", want: "0.13"},
		{name: "liters keep two places", q: "1.999", unit: "litros", want: "2"},
		{name: "short liter marker", q: "0.333", unit: "L", want: "0.33"},
		{name: "milliliters keep one place", q: "250.55", unit: "ml", want: "250.6"},
		{name: "spelled milliliters", q: "99.94", unit: "mililitros", want: "99.9"},
		{name: "pieces default to two places", q: "3.14159", unit: "pieza", want: "3.14"},
		{name: "float drift is removed", q: "4.999999999", unit: "kg", want: "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundQuantity(dec(tt.q), tt.unit)
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestRoundQuantity_Idempotent(t *testing.T) {
	units := []string{"kg", "g", "ml", "l", "litro", "pieza", ""}

	rapid.Check(t, func(rt *rapid.T) {
		unit := units[rapid.IntRange(0, len(units)-1).Draw(rt, "unit")]
		q := decimal.New(rapid.Int64Range(-1_000_000_000, 1_000_000_000).Draw(rt, "coef"), -int32(rapid.IntRange(0, 6).Draw(rt, "exp")))

		once := RoundQuantity(q, unit)
		twice := RoundQuantity(once, unit)
		if !once.Equal(twice) {
			rt.Fatalf("rounding %s (%s) twice gave %s then %s", q, unit, once, twice)
		}
	})
}

func TestIngredient_Decrease(t *testing.T) {
	ing := Ingredient{ID: 1, Name: "meat", Quantity: dec("20"), Unit: "kg"}

	require.NoError(t, ing.Decrease(dec("5"), testNow))
	assert.True(t, ing.Quantity.Equal(dec("15.0")))
	assert.Equal(t, testNow, ing.UpdatedAt)

	err := ing.Decrease(dec("25"), testNow.Add(time.Hour))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.True(t, ing.Quantity.Equal(dec("15")))
	assert.Equal(t, testNow, ing.UpdatedAt)

	var stockErr *StockError
	require.True(t, errors.As(err, &stockErr))
	require.Len(t, stockErr.Shortages, 1)
	assert.True(t, stockErr.Shortages[0].Required.Equal(dec("25")))
	assert.True(t, stockErr.Shortages[0].Available.Equal(dec("15")))

	assert.ErrorIs(t, ing.Decrease(dec("-1"), testNow), ErrValidation)
}

func TestIngredient_RepeatedFractionalDeductions(t *testing.T) {
	ing := Ingredient{Name: "meat", Quantity: dec("100"), Unit: "kg"}
	for i := 0; i < 300; i++ {
		require.NoError(t, ing.Decrease(dec("0.2"), testNow))
	}
	assert.True(t, ing.Quantity.Equal(dec("40")), "got %s", ing.Quantity)
}

func TestIngredient_Increase(t *testing.T) {
	ing := Ingredient{Name: "milk", Quantity: dec("100"), Unit: "ml"}

	require.NoError(t, ing.Increase(dec("0.25"), testNow))
	assert.True(t, ing.Quantity.Equal(dec("100.3")), "got %s", ing.Quantity)

	err := ing.Increase(dec("-3"), testNow)
	assert.ErrorIs(t, err, ErrValidation)
	assert.True(t, ing.Quantity.Equal(dec("100.3")))
}

func TestIngredient_Setters(t *testing.T) {
	ing := Ingredient{Name: "bun", Quantity: dec("10"), Unit: "pieza", UnitPrice: dec("2")}

	assert.ErrorIs(t, ing.SetQuantity(dec("-1"), testNow), ErrValidation)
	assert.ErrorIs(t, ing.SetPrice(dec("-0.01"), testNow), ErrValidation)

	require.NoError(t, ing.SetQuantity(dec("12.345"), testNow))
	assert.True(t, ing.Quantity.Equal(dec("12.35")))
	require.NoError(t, ing.SetPrice(dec("2.5"), testNow))
	assert.True(t, ing.UnitPrice.Equal(dec("2.5")))
}

func TestIngredient_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ing     Ingredient
		wantErr bool
		field   string
	}{
		{name: "valid", ing: Ingredient{Name: "bun", Unit: "pieza", Quantity: dec("1"), UnitPrice: dec("1")}},
		{name: "zero stock is valid", ing: Ingredient{Name: "bun", Unit: "pieza"}},
		{name: "missing name", ing: Ingredient{Name: " ", Unit: "kg"}, wantErr: true, field: "name"},
		{name: "missing unit", ing: Ingredient{Name: "meat"}, wantErr: true, field: "unit"},
		{name: "negative quantity", ing: Ingredient{Name: "meat", Unit: "kg", Quantity: dec("-1")}, wantErr: true, field: "quantity"},
		{name: "negative price", ing: Ingredient{Name: "meat", Unit: "kg", UnitPrice: dec("-1")}, wantErr: true, field: "unitPrice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ing.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrValidation)
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Contains(t, vErr.Fields, tt.field)
		})
	}
}

func TestIngredient_StockNeverNegative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		unit := rapid.SampledFrom([]string{"kg", "ml", "pieza"}).Draw(rt, "unit")
		ing := Ingredient{Name: "x", Unit: unit, Quantity: decimal.New(rapid.Int64Range(0, 100_000).Draw(rt, "start"), -2)}

		steps := rapid.IntRange(1, 50).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			amount := decimal.New(rapid.Int64Range(0, 50_000).Draw(rt, "amount"), -3)
			if rapid.Bool().Draw(rt, "increase") {
				if err := ing.Increase(amount, testNow); err != nil {
					rt.Fatalf("increase: %v", err)
				}
			} else if ing.HasSufficientStock(amount) {
				if err := ing.Decrease(amount, testNow); err != nil {
					rt.Fatalf("decrease of %s from %s: %v", amount, ing.Quantity, err)
				}
			} else if err := ing.Decrease(amount, testNow); !errors.Is(err, ErrInsufficientStock) {
				rt.Fatalf("expected insufficient stock, got %v", err)
			}
			if ing.Quantity.IsNegative() {
				rt.Fatalf("quantity went negative: %s", ing.Quantity)
			}
		}
	})
}
