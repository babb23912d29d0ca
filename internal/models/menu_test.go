package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	bunID  int64 = 1
	meatID int64 = 2
)

func burger() MenuItem {
	return MenuItem{
		ID:    10,
		Name:  "Burger",
		Price: dec("80"),
		Ingredients: []RecipeLine{
			{IngredientID: bunID, Quantity: dec("1")},
			{IngredientID: meatID, Quantity: dec("0.2")},
		},
		Active: true,
	}
}

func inventoryOf(bun, meat string) Inventory {
	return NewInventory([]Ingredient{
		{ID: bunID, Name: "bun", Quantity: dec(bun), Unit: "pieza", UnitPrice: dec("5")},
		{ID: meatID, Name: "meat", Quantity: dec(meat), Unit: "kg", UnitPrice: dec("150")},
	})
}

func TestMenuItem_StockCheck(t *testing.T) {
	item := burger()

	res := item.StockCheck(inventoryOf("0", "5"), 1)
	assert.False(t, res.Sufficient)
	require.Len(t, res.Shortages, 1)
	assert.Equal(t, bunID, res.Shortages[0].IngredientID)
	assert.Equal(t, "bun", res.Shortages[0].Name)
	assert.True(t, res.Shortages[0].Required.Equal(dec("1")))
	assert.True(t, res.Shortages[0].Available.IsZero())
	require.Len(t, res.SufficientLines, 1)
	assert.Equal(t, meatID, res.SufficientLines[0].IngredientID)

	res = item.StockCheck(inventoryOf("3", "0.5"), 3)
	assert.False(t, res.Sufficient)
	require.Len(t, res.Shortages, 1)
	assert.Equal(t, meatID, res.Shortages[0].IngredientID)
	assert.True(t, res.Shortages[0].Required.Equal(dec("0.6")))

	res = item.StockCheck(inventoryOf("3", "0.6"), 3)
	assert.True(t, res.Sufficient)
	assert.Empty(t, res.Shortages)
	assert.Len(t, res.SufficientLines, 2)
}

func TestMenuItem_StockCheckMissingIngredient(t *testing.T) {
	item := burger()
	inv := NewInventory([]Ingredient{{ID: bunID, Name: "bun", Quantity: dec("10"), Unit: "pieza"}})

	res := item.StockCheck(inv, 1)
	assert.False(t, res.Sufficient)
	require.Len(t, res.Shortages, 1)
	assert.Equal(t, meatID, res.Shortages[0].IngredientID)
	assert.True(t, res.Shortages[0].Available.IsZero())
}

func TestMenuItem_CostAndMargin(t *testing.T) {
	item := burger()
	inv := inventoryOf("10", "10")

	// 1*5 + 0.2*150
	assert.True(t, item.CostOfIngredients(inv).Equal(dec("35")))
	assert.True(t, item.ProfitMargin(inv).Equal(dec("45")))
	assert.Empty(t, item.MissingIngredients(inv))

	delete(inv, meatID)
	assert.True(t, item.CostOfIngredients(inv).Equal(dec("5")))
	assert.Equal(t, []int64{meatID}, item.MissingIngredients(inv))
}

func TestMenuItem_MaxProducibleUnits(t *testing.T) {
	tests := []struct {
		name string
		item MenuItem
		inv  Inventory
		want int64
	}{
		{name: "limited by meat", item: burger(), inv: inventoryOf("100", "1.1"), want: 5},
		{name: "limited by buns", item: burger(), inv: inventoryOf("3", "10"), want: 3},
		{name: "exact division", item: burger(), inv: inventoryOf("10", "0.6"), want: 3},
		{name: "out of stock", item: burger(), inv: inventoryOf("0", "10"), want: 0},
		{name: "missing ingredient", item: burger(), inv: NewInventory([]Ingredient{{ID: bunID, Quantity: dec("9")}}), want: 0},
		{name: "empty recipe", item: MenuItem{Name: "air"}, inv: inventoryOf("1", "1"), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.MaxProducibleUnits(tt.inv))
		})
	}
}

func TestMenuItem_RecipeMutators(t *testing.T) {
	item := burger()

	assert.ErrorIs(t, item.AddIngredientLine(3, decimal.Zero, testNow), ErrValidation)

	require.NoError(t, item.AddIngredientLine(3, dec("0.05"), testNow))
	require.Len(t, item.Ingredients, 3)

	require.NoError(t, item.AddIngredientLine(3, dec("0.1"), testNow))
	require.Len(t, item.Ingredients, 3)
	assert.True(t, item.Ingredients[2].Quantity.Equal(dec("0.1")))

	require.NoError(t, item.SetIngredientLineQuantity(meatID, dec("0.25"), testNow))
	assert.True(t, item.Ingredients[1].Quantity.Equal(dec("0.25")))

	require.NoError(t, item.SetIngredientLineQuantity(3, dec("0"), testNow))
	assert.Len(t, item.Ingredients, 2)

	assert.ErrorIs(t, item.SetIngredientLineQuantity(99, dec("1"), testNow), ErrNotFound)

	assert.True(t, item.RemoveIngredientLine(bunID, testNow))
	assert.False(t, item.RemoveIngredientLine(bunID, testNow))
	assert.Len(t, item.Ingredients, 1)
	assert.Equal(t, testNow, item.UpdatedAt)
}

func TestMenuItem_Validate(t *testing.T) {
	valid := burger()
	assert.NoError(t, valid.Validate())

	noRecipe := burger()
	noRecipe.Ingredients = nil
	err := noRecipe.Validate()
	require.ErrorIs(t, err, ErrValidation)

	badLine := burger()
	badLine.Ingredients[0].Quantity = dec("-1")
	err = badLine.Validate()
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "ingredients")

	negative := burger()
	negative.Name = ""
	negative.Price = dec("-1")
	err = negative.Validate()
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "name")
	assert.Contains(t, vErr.Fields, "price")
}

func TestParseOrderStatus(t *testing.T) {
	for _, s := range []string{"pending", "paid", "cancelled"} {
		st, err := ParseOrderStatus(s)
		require.NoError(t, err)
		assert.Equal(t, OrderStatus(s), st)
	}

	_, err := ParseOrderStatus("shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
