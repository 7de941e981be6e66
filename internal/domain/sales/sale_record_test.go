package sales

import (
	"strings"
	"testing"
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSaleRecord(t *testing.T) {
	soldAt := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

	t.Run("records priced items and change", func(t *testing.T) {
		cart := exampleCart(t)
		cart.SetOverallDiscount(dec("10"))
		payment := PaymentBreakdown{Cash: dec("20"), Card: dec("5"), Account: decimal.Zero}

		sale, err := NewSaleRecord(cart, payment, "user-7", soldAt)
		require.NoError(t, err)

		assert.Equal(t, "25.00", sale.Subtotal.StringFixed(2))
		assert.Equal(t, "0.50", sale.LineDiscountTotal.StringFixed(2))
		assert.Equal(t, "22.05", sale.Total.StringFixed(2))
		assert.Equal(t, "25.00", sale.AmountPaid.StringFixed(2))
		assert.Equal(t, "2.95", sale.Change.StringFixed(2))
		assert.Equal(t, SaleStatusPaid, sale.Status)
		assert.Equal(t, "user-7", sale.CashierID)
		assert.Equal(t, soldAt, sale.SoldAt)
		assert.Equal(t, 3, sale.ItemCount())
		assert.Equal(t, "2.95", sale.DiscountTotal().StringFixed(2))
		require.Len(t, sale.Items, 2)
		assert.Equal(t, 2, sale.Items[0].Quantity)
		assert.Equal(t, "20.00", sale.Items[0].Amount.StringFixed(2))
		assert.Equal(t, "4.50", sale.Items[1].Amount.StringFixed(2))
		assert.True(t, strings.HasPrefix(sale.OrderNumber, "POS-20260314-"))
	})

	t.Run("publishes SaleCompleted event", func(t *testing.T) {
		sale, err := NewSaleRecord(exampleCart(t), PaymentBreakdown{Cash: dec("30")}, "user-7", soldAt)
		require.NoError(t, err)

		events := sale.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*SaleCompletedEvent)
		require.True(t, ok)
		assert.Equal(t, sale.ID, event.SaleID)
		assert.Equal(t, PaymentMethodCash, event.PaymentMethod)
	})

	t.Run("account payment leaves the sale pending", func(t *testing.T) {
		sale, err := NewSaleRecord(exampleCart(t), PaymentBreakdown{Cash: dec("4.5"), Account: dec("20")}, "user-7", soldAt)
		require.NoError(t, err)
		assert.Equal(t, SaleStatusPending, sale.Status)
		assert.Equal(t, PaymentMethodSplit, sale.Payment.Method())
	})

	t.Run("rejects underpayment", func(t *testing.T) {
		_, err := NewSaleRecord(exampleCart(t), PaymentBreakdown{Cash: dec("24.49")}, "user-7", soldAt)
		require.Error(t, err)
		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "INSUFFICIENT_PAYMENT", de.Code)
		assert.Contains(t, de.Message, "24.49")
	})

	t.Run("rejects empty cart", func(t *testing.T) {
		_, err := NewSaleRecord(NewCart("till-1"), PaymentBreakdown{Cash: dec("1")}, "user-7", soldAt)
		assert.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		_, err := NewSaleRecord(exampleCart(t), PaymentBreakdown{Cash: dec("50"), Card: dec("-1")}, "user-7", soldAt)
		require.Error(t, err)
		de, _ := shared.AsDomainError(err)
		assert.Equal(t, "INVALID_PAYMENT", de.Code)
	})
}

func TestSaleRecord_UpdateStatus(t *testing.T) {
	sale, err := NewSaleRecord(exampleCart(t), PaymentBreakdown{Account: dec("24.5")}, "user-7", time.Now())
	require.NoError(t, err)
	sale.PullDomainEvents()

	t.Run("moves to overdue", func(t *testing.T) {
		require.NoError(t, sale.UpdateStatus(SaleStatusOverdue))
		assert.Equal(t, SaleStatusOverdue, sale.Status)
		require.Len(t, sale.GetDomainEvents(), 1)
		event := sale.GetDomainEvents()[0].(*SaleStatusChangedEvent)
		assert.Equal(t, SaleStatusPending, event.OldStatus)
		assert.Equal(t, SaleStatusOverdue, event.NewStatus)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		sale.PullDomainEvents()
		require.NoError(t, sale.UpdateStatus(SaleStatusOverdue))
		assert.Empty(t, sale.GetDomainEvents())
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		err := sale.UpdateStatus(SaleStatus("refunded"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid sale status")
	})
}

func TestPaymentBreakdown_Method(t *testing.T) {
	tests := []struct {
		name    string
		payment PaymentBreakdown
		want    PaymentMethod
	}{
		{"none", PaymentBreakdown{}, PaymentMethodNone},
		{"cash", PaymentBreakdown{Cash: dec("1")}, PaymentMethodCash},
		{"card", PaymentBreakdown{Card: dec("1")}, PaymentMethodCard},
		{"account", PaymentBreakdown{Account: dec("1")}, PaymentMethodAccount},
		{"split", PaymentBreakdown{Cash: dec("1"), Card: dec("2")}, PaymentMethodSplit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.payment.Method())
		})
	}
}
