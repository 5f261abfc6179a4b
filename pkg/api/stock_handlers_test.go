package api

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func i64Ptr(n int64) *int64   { return &n }

func TestBuildStockUpdatesPartial(t *testing.T) {
	v := NewValidator()
	updates := buildStockUpdates(StockUpdateRequest{
		CurrentPrice: strPtr("150.75"),
	}, v)

	require.False(t, v.HasErrors())
	require.Len(t, updates, 1)
	price, ok := updates["current_price"].(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.RequireFromString("150.75")))
}

func TestBuildStockUpdatesAllFields(t *testing.T) {
	v := NewValidator()
	updates := buildStockUpdates(StockUpdateRequest{
		StockName:    strPtr("Tata Motors"),
		StockSymbol:  strPtr("TATAMOTORS"),
		BuyPrice:     strPtr("620.50"),
		CurrentPrice: strPtr("701.00"),
		SellPrice:    strPtr("710.00"),
		Quantity:     i64Ptr(25),
		PurchaseDate: strPtr("2026-01-15"),
		Status:       strPtr("active"),
	}, v)

	require.False(t, v.HasErrors())
	require.Len(t, updates, 8)
	assert.Equal(t, "Tata Motors", updates["stock_name"])
	assert.Equal(t, int64(25), updates["quantity"])
	parsed, ok := updates["purchase_date"].(time.Time)
	require.True(t, ok)
	assert.Equal(t, "2026-01-15", parsed.Format("2006-01-02"))
}

func TestBuildStockUpdatesRejectsBadDate(t *testing.T) {
	v := NewValidator()
	updates := buildStockUpdates(StockUpdateRequest{
		PurchaseDate: strPtr("15/01/2026"),
	}, v)

	// A malformed date must fail the whole update, never be silently
	// dropped.
	require.True(t, v.HasErrors())
	assert.Contains(t, v.GetErrors().Error(), "purchase_date")
	_, present := updates["purchase_date"]
	assert.False(t, present)
}

func TestBuildStockUpdatesRejectsBadValues(t *testing.T) {
	v := NewValidator()
	buildStockUpdates(StockUpdateRequest{
		BuyPrice: strPtr("-10"),
		Quantity: i64Ptr(0),
	}, v)

	require.True(t, v.HasErrors())
	msg := v.GetErrors().Error()
	assert.Contains(t, msg, "buy_price")
	assert.Contains(t, msg, "quantity")
}

func TestBuildStockUpdatesEmptyPayload(t *testing.T) {
	v := NewValidator()
	updates := buildStockUpdates(StockUpdateRequest{}, v)

	assert.False(t, v.HasErrors())
	assert.Empty(t, updates)
}
