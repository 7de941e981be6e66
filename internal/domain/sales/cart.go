package sales

import (
	"time"

	"github.com/erp/pos/internal/domain/catalog"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart errors
var (
	ErrStockLimitReached = shared.NewDomainError("STOCK_LIMIT_REACHED", "Cannot add more units than are in stock")
	ErrLineNotFound      = shared.NewDomainError("NOT_FOUND", "Product is not in the cart")
	ErrEmptyCart         = shared.NewDomainError("EMPTY_CART", "Cart is empty")
)

// ProductSnapshot is the copy of a product captured when it was added to a cart.
// Stock is the on-hand quantity seen at that moment and is what checkout
// decrements from.
type ProductSnapshot struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	Stock             int             `json:"stock"`
	LowStockThreshold int             `json:"low_stock_threshold,omitempty"`
	Barcode           string          `json:"barcode,omitempty"`
}

// SnapshotOf captures the fields of a catalog product the cart needs
func SnapshotOf(p *catalog.Product) ProductSnapshot {
	return ProductSnapshot{
		ID:                p.ID,
		Name:              p.Name,
		Price:             p.Price,
		Stock:             p.Quantity,
		LowStockThreshold: p.LowStockThreshold,
		Barcode:           p.Barcode,
	}
}

// CartLine is one product in the cart
type CartLine struct {
	Product         ProductSnapshot `json:"product"`
	Quantity        int             `json:"quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// Gross returns price × quantity
func (l CartLine) Gross() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Discount returns the amount taken off by the line discount
func (l CartLine) Discount() decimal.Decimal {
	return l.Gross().Mul(l.DiscountPercent).Div(hundred)
}

// Net returns the line amount after its own discount
func (l CartLine) Net() decimal.Decimal {
	return l.Gross().Sub(l.Discount())
}

// RemainingStock is the stock value written back at checkout
func (l CartLine) RemainingStock() int {
	return l.Product.Stock - l.Quantity
}

// Cart is the mutable basket of a single checkout session.
// Lines keep insertion order and are keyed by product id.
type Cart struct {
	SessionID              string          `json:"session_id"`
	Lines                  []CartLine      `json:"lines"`
	OverallDiscountPercent decimal.Decimal `json:"overall_discount_percent"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// NewCart creates an empty cart for a checkout session
func NewCart(sessionID string) *Cart {
	return &Cart{
		SessionID:              sessionID,
		Lines:                  make([]CartLine, 0),
		OverallDiscountPercent: decimal.Zero,
		UpdatedAt:              time.Now(),
	}
}

// Add puts one unit of the product in the cart.
// An existing line is incremented only while the new quantity stays within
// the product's on-hand stock; otherwise the cart is left unchanged.
func (c *Cart) Add(product ProductSnapshot) error {
	if idx := c.indexOf(product.ID); idx >= 0 {
		line := &c.Lines[idx]
		if line.Quantity+1 > product.Stock {
			return ErrStockLimitReached
		}
		line.Quantity++
		line.Product.Stock = product.Stock
		c.touch()
		return nil
	}

	if product.Stock < 1 {
		return ErrStockLimitReached
	}

	c.Lines = append(c.Lines, CartLine{
		Product:         product,
		Quantity:        1,
		DiscountPercent: decimal.Zero,
	})
	c.touch()
	return nil
}

// Remove takes one unit of the product out, deleting the line when it was the last one
func (c *Cart) Remove(productID uuid.UUID) error {
	idx := c.indexOf(productID)
	if idx < 0 {
		return ErrLineNotFound
	}

	if c.Lines[idx].Quantity > 1 {
		c.Lines[idx].Quantity--
	} else {
		c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
	}
	c.touch()
	return nil
}

// Clear empties the cart and resets the overall discount
func (c *Cart) Clear() {
	c.Lines = make([]CartLine, 0)
	c.OverallDiscountPercent = decimal.Zero
	c.touch()
}

// SetLineDiscount sets the discount percentage of a line.
// The value is not range checked.
func (c *Cart) SetLineDiscount(productID uuid.UUID, percent decimal.Decimal) error {
	idx := c.indexOf(productID)
	if idx < 0 {
		return ErrLineNotFound
	}
	c.Lines[idx].DiscountPercent = percent
	c.touch()
	return nil
}

// SetOverallDiscount sets the cart-wide discount applied after line discounts
func (c *Cart) SetOverallDiscount(percent decimal.Decimal) {
	c.OverallDiscountPercent = percent
	c.touch()
}

// Line returns the line for a product
func (c *Cart) Line(productID uuid.UUID) (CartLine, bool) {
	if idx := c.indexOf(productID); idx >= 0 {
		return c.Lines[idx], true
	}
	return CartLine{}, false
}

// IsEmpty returns true when the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ItemCount returns the total number of units in the cart
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i := range c.Lines {
		if c.Lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}
