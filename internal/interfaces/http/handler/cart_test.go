package handler

import (
	"context"
	"net/http"
	"testing"

	salesapp "github.com/erp/pos/internal/application/sales"
	"github.com/erp/pos/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cartPath = "/api/v1/carts/till-1"

// fillWorkedCart builds the cart [{10.00 x2}, {5.00 x1 at 10%}]
func fillWorkedCart(t *testing.T, f *fixture) (first, second string) {
	t.Helper()
	a := f.seedProduct(t, "Notebook", "10.00", 5, "A-1")
	b := f.seedProduct(t, "Pen", "5.00", 3, "B-1")

	assertStatus(t, f.do(http.MethodPost, cartPath+"/items", map[string]any{"product_id": a.ID}), http.StatusOK)
	assertStatus(t, f.do(http.MethodPost, cartPath+"/items", map[string]any{"barcode": "A-1"}), http.StatusOK)
	assertStatus(t, f.do(http.MethodPost, cartPath+"/items", map[string]any{"product_id": b.ID}), http.StatusOK)
	assertStatus(t, f.do(http.MethodPut, cartPath+"/items/"+b.ID.String()+"/discount", map[string]any{"percent": "10"}), http.StatusOK)
	return a.ID.String(), b.ID.String()
}

func TestCartHandler_WorkedExample(t *testing.T) {
	f := newFixture(t)
	fillWorkedCart(t, f)

	w := f.do(http.MethodGet, cartPath, nil)
	assertStatus(t, w, http.StatusOK)

	var cart salesapp.CartResponse
	decode(t, w, &cart)
	require.Len(t, cart.Lines, 2)
	assert.Equal(t, 3, cart.ItemCount)
	assert.True(t, dec("25.00").Equal(cart.Subtotal), cart.Subtotal.String())
	assert.True(t, dec("0.50").Equal(cart.LineDiscountTotal), cart.LineDiscountTotal.String())
	assert.True(t, dec("24.50").Equal(cart.Total), cart.Total.String())

	w = f.do(http.MethodPut, cartPath+"/discount", map[string]any{"percent": "10"})
	assertStatus(t, w, http.StatusOK)
	decode(t, w, &cart)
	assert.True(t, dec("22.05").Equal(cart.Total), cart.Total.String())
}

func TestCartHandler_EmptySession(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/carts/fresh", nil)
	assertStatus(t, w, http.StatusOK)

	var cart salesapp.CartResponse
	decode(t, w, &cart)
	assert.Empty(t, cart.Lines)
	assert.True(t, cart.Total.IsZero())
}

func TestCartHandler_AddItem_Errors(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "Last one", "2.00", 1, "")

	tests := []struct {
		name     string
		body     map[string]any
		want     int
		wantCode string
	}{
		{"neither id nor barcode", map[string]any{}, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"unknown barcode", map[string]any{"barcode": "nope"}, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, cartPath+"/items", tt.body)
			assertStatus(t, w, tt.want)
			assert.Equal(t, tt.wantCode, decode(t, w, nil).Error.Code)
		})
	}

	t.Run("beyond stock", func(t *testing.T) {
		assertStatus(t, f.do(http.MethodPost, cartPath+"/items", map[string]any{"product_id": p.ID}), http.StatusOK)
		w := f.do(http.MethodPost, cartPath+"/items", map[string]any{"product_id": p.ID})
		assertStatus(t, w, http.StatusUnprocessableEntity)
		assert.Equal(t, "STOCK_LIMIT_REACHED", decode(t, w, nil).Error.Code)
	})
}

func TestCartHandler_RemoveAndClear(t *testing.T) {
	f := newFixture(t)
	first, second := fillWorkedCart(t, f)

	w := f.do(http.MethodDelete, cartPath+"/items/"+first, nil)
	assertStatus(t, w, http.StatusOK)
	var cart salesapp.CartResponse
	decode(t, w, &cart)
	require.Len(t, cart.Lines, 2)
	assert.Equal(t, 1, cart.Lines[0].Quantity)

	w = f.do(http.MethodDelete, cartPath+"/items/"+second, nil)
	assertStatus(t, w, http.StatusOK)
	decode(t, w, &cart)
	assert.Len(t, cart.Lines, 1)

	assertStatus(t, f.do(http.MethodDelete, cartPath+"/items/"+second, nil), http.StatusNotFound)
	assertStatus(t, f.do(http.MethodDelete, cartPath+"/items/bad", nil), http.StatusBadRequest)

	w = f.do(http.MethodDelete, cartPath, nil)
	assertStatus(t, w, http.StatusOK)
	decode(t, w, &cart)
	assert.Empty(t, cart.Lines)
}

func TestCheckoutHandler_Checkout(t *testing.T) {
	f := newFixture(t)
	first, second := fillWorkedCart(t, f)
	assertStatus(t, f.do(http.MethodPut, cartPath+"/discount", map[string]any{"percent": "10"}), http.StatusOK)

	w := f.do(http.MethodPost, cartPath+"/checkout", map[string]any{"cash": "20", "card": "5"})
	assertStatus(t, w, http.StatusCreated)

	var sale salesapp.SaleResponse
	decode(t, w, &sale)
	assert.True(t, dec("22.05").Equal(sale.Total), sale.Total.String())
	assert.True(t, dec("25").Equal(sale.AmountPaid))
	assert.True(t, dec("2.95").Equal(sale.Change), sale.Change.String())
	assert.Equal(t, testCashier, sale.CashierID)
	assert.Equal(t, "paid", sale.Status)
	assert.Len(t, sale.Items, 2)

	remaining := map[string]int{first: 3, second: 2}
	for _, item := range sale.Items {
		product, err := f.productDB.FindByID(context.Background(), item.ProductID)
		require.NoError(t, err)
		assert.Equal(t, remaining[product.ID.String()], product.Quantity, product.Name)
	}

	w = f.do(http.MethodGet, cartPath, nil)
	var cart salesapp.CartResponse
	decode(t, w, &cart)
	assert.Empty(t, cart.Lines, "cart is cleared after checkout")

	w = f.do(http.MethodGet, "/api/v1/sales/"+sale.ID.String(), nil)
	assertStatus(t, w, http.StatusOK)
}

func TestCheckoutHandler_Rejections(t *testing.T) {
	f := newFixture(t)

	t.Run("empty cart", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/v1/carts/empty/checkout", map[string]any{"cash": "10"})
		assertStatus(t, w, http.StatusUnprocessableEntity)
		assert.Equal(t, "EMPTY_CART", decode(t, w, nil).Error.Code)
	})

	fillWorkedCart(t, f)

	t.Run("underpaid", func(t *testing.T) {
		w := f.do(http.MethodPost, cartPath+"/checkout", map[string]any{"cash": "24.49"})
		assertStatus(t, w, http.StatusUnprocessableEntity)
		assert.Equal(t, "INSUFFICIENT_PAYMENT", decode(t, w, nil).Error.Code)
	})

	t.Run("negative amount", func(t *testing.T) {
		w := f.do(http.MethodPost, cartPath+"/checkout", map[string]any{"cash": "30", "card": "-1"})
		assertStatus(t, w, http.StatusBadRequest)
		assert.Equal(t, "INVALID_PAYMENT", decode(t, w, nil).Error.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		w := f.do(http.MethodPost, cartPath+"/checkout", map[string]any{"cash": "30"}, "X-Test-User", "-")
		assertStatus(t, w, http.StatusUnauthorized)
	})

	w := f.do(http.MethodGet, cartPath, nil)
	var cart salesapp.CartResponse
	decode(t, w, &cart)
	assert.Len(t, cart.Lines, 2, "rejected checkouts leave the cart untouched")
}
