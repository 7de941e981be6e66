package sales

import (
	"testing"

	"github.com/erp/pos/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(price float64, stock int) ProductSnapshot {
	return ProductSnapshot{
		ID:    uuid.New(),
		Name:  "Item",
		Price: decimal.NewFromFloat(price),
		Stock: stock,
	}
}

func TestCart_Add(t *testing.T) {
	t.Run("new product gets a line with quantity 1 and no discount", func(t *testing.T) {
		cart := NewCart("till-1")
		p := snapshot(10, 5)

		require.NoError(t, cart.Add(p))

		require.Len(t, cart.Lines, 1)
		assert.Equal(t, 1, cart.Lines[0].Quantity)
		assert.True(t, cart.Lines[0].DiscountPercent.IsZero())
		assert.Equal(t, p.ID, cart.Lines[0].Product.ID)
	})

	t.Run("adding the same product twice merges into one line", func(t *testing.T) {
		cart := NewCart("till-1")
		p := snapshot(10, 5)

		require.NoError(t, cart.Add(p))
		require.NoError(t, cart.Add(p))

		require.Len(t, cart.Lines, 1)
		assert.Equal(t, 2, cart.Lines[0].Quantity)
		assert.Equal(t, 2, cart.ItemCount())
	})

	t.Run("quantity never exceeds stock", func(t *testing.T) {
		cart := NewCart("till-1")
		p := snapshot(10, 2)

		require.NoError(t, cart.Add(p))
		require.NoError(t, cart.Add(p))
		err := cart.Add(p)

		assert.ErrorIs(t, err, ErrStockLimitReached)
		assert.Equal(t, 2, cart.Lines[0].Quantity)
	})

	t.Run("out of stock product is not added", func(t *testing.T) {
		cart := NewCart("till-1")

		err := cart.Add(snapshot(10, 0))

		assert.ErrorIs(t, err, ErrStockLimitReached)
		assert.True(t, cart.IsEmpty())
	})

	t.Run("later add refreshes the stock snapshot", func(t *testing.T) {
		cart := NewCart("till-1")
		p := snapshot(10, 5)
		require.NoError(t, cart.Add(p))

		p.Stock = 8
		require.NoError(t, cart.Add(p))

		line, ok := cart.Line(p.ID)
		require.True(t, ok)
		assert.Equal(t, 8, line.Product.Stock)
		assert.Equal(t, 6, line.RemainingStock())
	})

	t.Run("lines keep insertion order", func(t *testing.T) {
		cart := NewCart("till-1")
		a, b, c := snapshot(1, 9), snapshot(2, 9), snapshot(3, 9)
		for _, p := range []ProductSnapshot{a, b, c, a} {
			require.NoError(t, cart.Add(p))
		}

		require.Len(t, cart.Lines, 3)
		assert.Equal(t, a.ID, cart.Lines[0].Product.ID)
		assert.Equal(t, b.ID, cart.Lines[1].Product.ID)
		assert.Equal(t, c.ID, cart.Lines[2].Product.ID)
	})
}

func TestCart_Remove(t *testing.T) {
	t.Run("removing from a quantity-1 line deletes it", func(t *testing.T) {
		cart := NewCart("till-1")
		p := snapshot(10, 5)
		require.NoError(t, cart.Add(p))

		require.NoError(t, cart.Remove(p.ID))

		assert.True(t, cart.IsEmpty())
	})

	t.Run("removing from a quantity-N line decrements", func(t *testing.T) {
		cart := NewCart("till-1")
		p := snapshot(10, 5)
		for i := 0; i < 3; i++ {
			require.NoError(t, cart.Add(p))
		}

		require.NoError(t, cart.Remove(p.ID))

		line, ok := cart.Line(p.ID)
		require.True(t, ok)
		assert.Equal(t, 2, line.Quantity)
	})

	t.Run("removing a product not in the cart fails", func(t *testing.T) {
		cart := NewCart("till-1")
		err := cart.Remove(uuid.New())
		assert.ErrorIs(t, err, ErrLineNotFound)
	})

	t.Run("removing the middle line keeps the others", func(t *testing.T) {
		cart := NewCart("till-1")
		a, b, c := snapshot(1, 9), snapshot(2, 9), snapshot(3, 9)
		for _, p := range []ProductSnapshot{a, b, c} {
			require.NoError(t, cart.Add(p))
		}

		require.NoError(t, cart.Remove(b.ID))

		require.Len(t, cart.Lines, 2)
		assert.Equal(t, a.ID, cart.Lines[0].Product.ID)
		assert.Equal(t, c.ID, cart.Lines[1].Product.ID)
	})
}

func TestCart_Discounts(t *testing.T) {
	t.Run("line discount is accepted as given", func(t *testing.T) {
		cart := NewCart("till-1")
		p := snapshot(10, 5)
		require.NoError(t, cart.Add(p))

		require.NoError(t, cart.SetLineDiscount(p.ID, decimal.NewFromInt(150)))

		line, _ := cart.Line(p.ID)
		assert.True(t, line.DiscountPercent.Equal(decimal.NewFromInt(150)))
	})

	t.Run("line discount on unknown product fails", func(t *testing.T) {
		cart := NewCart("till-1")
		err := cart.SetLineDiscount(uuid.New(), decimal.NewFromInt(5))
		assert.ErrorIs(t, err, ErrLineNotFound)
	})

	t.Run("clear empties lines and resets the overall discount", func(t *testing.T) {
		cart := NewCart("till-1")
		require.NoError(t, cart.Add(snapshot(10, 5)))
		cart.SetOverallDiscount(decimal.NewFromInt(10))

		cart.Clear()

		assert.True(t, cart.IsEmpty())
		assert.True(t, cart.OverallDiscountPercent.IsZero())
		assert.Equal(t, "till-1", cart.SessionID)
	})
}

func TestSnapshotOf(t *testing.T) {
	product, err := catalog.NewProduct("Kettle", decimal.NewFromInt(40), 7, 2)
	require.NoError(t, err)
	require.NoError(t, product.SetBarcode("123"))

	s := SnapshotOf(product)

	assert.Equal(t, product.ID, s.ID)
	assert.Equal(t, "Kettle", s.Name)
	assert.True(t, s.Price.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, 7, s.Stock)
	assert.Equal(t, "123", s.Barcode)
}
