package printing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/pos/internal/domain/financing"
	"github.com/erp/pos/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCart(t *testing.T) *sales.Cart {
	t.Helper()
	cart := sales.NewCart("till-1")
	notebook := sales.ProductSnapshot{ID: uuid.New(), Name: "Notebook", Price: decimal.NewFromInt(10), Stock: 5}
	require.NoError(t, cart.Add(notebook))
	require.NoError(t, cart.Add(notebook))
	pen := sales.ProductSnapshot{ID: uuid.New(), Name: "Pen", Price: decimal.NewFromInt(5), Stock: 5}
	require.NoError(t, cart.Add(pen))
	require.NoError(t, cart.SetLineDiscount(pen.ID, decimal.NewFromInt(10)))
	cart.SetOverallDiscount(decimal.NewFromInt(10))
	return cart
}

func TestReceiptTemplates_RenderSale(t *testing.T) {
	cart := sampleCart(t)
	soldAt := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	sale, err := sales.NewSaleRecord(cart, sales.PaymentBreakdown{Cash: decimal.NewFromInt(30)}, "cashier-7", soldAt)
	require.NoError(t, err)

	r := NewReceiptTemplates(StoreInfo{Name: "Corner Shop", Address: "1 High Street"}, "en")
	r.location = time.UTC

	html, err := r.RenderSale(context.Background(), sale)
	require.NoError(t, err)

	assert.Contains(t, html, "Corner Shop")
	assert.Contains(t, html, "1 High Street")
	assert.Contains(t, html, sale.OrderNumber)
	assert.Contains(t, html, "2024-03-15 14:30")
	assert.Contains(t, html, "Notebook")
	assert.Contains(t, html, "-10%")
	assert.Contains(t, html, "25.00")
	assert.Contains(t, html, "-0.50")
	assert.Contains(t, html, "22.05")
	assert.Contains(t, html, "7.95")
	assert.Contains(t, html, "Status: Paid")
	assert.NotContains(t, html, "On account")
}

func TestReceiptTemplates_Money(t *testing.T) {
	cases := []struct {
		locale string
		amount string
		want   string
	}{
		{"en", "1234.5", "1,234.50"},
		{"en", "0.005", "0.01"},
		{"de", "1234.5", "1.234,50"},
		{"not a locale!", "3", "3.00"},
	}
	for _, tc := range cases {
		t.Run(tc.locale+"/"+tc.amount, func(t *testing.T) {
			r := NewReceiptTemplates(StoreInfo{}, tc.locale)
			assert.Equal(t, tc.want, r.money(decimal.RequireFromString(tc.amount)))
		})
	}
}

func TestReceiptTemplates_RenderAgreement(t *testing.T) {
	cart := sales.NewCart("till-1")
	require.NoError(t, cart.Add(sales.ProductSnapshot{ID: uuid.New(), Name: "Fridge", Price: decimal.NewFromInt(1000), Stock: 1}))

	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	agreement, err := financing.NewHirePurchaseAgreement(
		financing.Customer{Name: "Ada", Phone: "555-0100"},
		cart,
		financing.Terms{InterestRate: decimal.NewFromInt(5), TermMonths: 10},
		start, "cashier-7")
	require.NoError(t, err)

	r := NewReceiptTemplates(StoreInfo{Name: "Corner Shop"}, "en")
	r.location = time.UTC

	html, err := r.RenderAgreement(context.Background(), agreement)
	require.NoError(t, err)

	assert.Contains(t, html, "Ada (555-0100)")
	assert.Contains(t, html, "1,000.00")
	assert.Contains(t, html, "1,050.00")
	assert.Contains(t, html, "105.00 Monthly over 10 months")
	assert.Contains(t, html, "2024-02-29")
	assert.Contains(t, html, "Status: Active")
}

func TestReceiptTemplates_NilInputs(t *testing.T) {
	r := NewReceiptTemplates(StoreInfo{}, "en")

	_, err := r.RenderSale(context.Background(), nil)
	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)

	_, err = r.RenderAgreement(context.Background(), nil)
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
}
