package sales

import (
	"context"

	"github.com/erp/pos/internal/domain/catalog"
	"github.com/erp/pos/internal/domain/sales"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartService owns the carts of all checkout sessions. Each operation loads
// the session cart, applies one change and stores it again.
type CartService struct {
	carts    sales.CartRepository
	products catalog.ProductRepository
	locks    *SessionLocks
	logger   *zap.Logger
}

// NewCartService creates a new CartService. Pass the same locks to the
// CheckoutService so checkout and cart edits of one session do not interleave.
func NewCartService(carts sales.CartRepository, products catalog.ProductRepository, locks *SessionLocks, logger *zap.Logger) *CartService {
	if locks == nil {
		locks = NewSessionLocks()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{carts: carts, products: products, locks: locks, logger: logger}
}

// Get returns the session cart, empty when nothing was added yet
func (s *CartService) Get(ctx context.Context, sessionID string) (*CartResponse, error) {
	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return ToCartResponse(cart), nil
}

// AddProduct adds one unit of a product, looked up by id or barcode.
// The product is read fresh so the line carries the current price and stock.
func (s *CartService) AddProduct(ctx context.Context, sessionID string, req AddToCartRequest) (*CartResponse, error) {
	product, err := s.lookup(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, func(c *sales.Cart) error {
		return c.Add(sales.SnapshotOf(product))
	})
}

// RemoveProduct takes one unit of a product out of the cart
func (s *CartService) RemoveProduct(ctx context.Context, sessionID string, productID uuid.UUID) (*CartResponse, error) {
	return s.mutate(ctx, sessionID, func(c *sales.Cart) error {
		return c.Remove(productID)
	})
}

// SetLineDiscount sets the discount percentage of one line
func (s *CartService) SetLineDiscount(ctx context.Context, sessionID string, productID uuid.UUID, percent decimal.Decimal) (*CartResponse, error) {
	return s.mutate(ctx, sessionID, func(c *sales.Cart) error {
		return c.SetLineDiscount(productID, percent)
	})
}

// SetOverallDiscount sets the cart-wide discount percentage
func (s *CartService) SetOverallDiscount(ctx context.Context, sessionID string, percent decimal.Decimal) (*CartResponse, error) {
	return s.mutate(ctx, sessionID, func(c *sales.Cart) error {
		c.SetOverallDiscount(percent)
		return nil
	})
}

// Clear empties the session cart
func (s *CartService) Clear(ctx context.Context, sessionID string) (*CartResponse, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if err := s.carts.Delete(ctx, sessionID); err != nil {
		return nil, err
	}
	return ToCartResponse(sales.NewCart(sessionID)), nil
}

func (s *CartService) mutate(ctx context.Context, sessionID string, change func(*sales.Cart) error) (*CartResponse, error) {
	if sessionID == "" {
		return nil, shared.NewDomainError("INVALID_SESSION", "Checkout session id is required")
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := change(cart); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		s.logger.Error("Failed to save cart", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	return ToCartResponse(cart), nil
}

func (s *CartService) lookup(ctx context.Context, req AddToCartRequest) (*catalog.Product, error) {
	switch {
	case req.ProductID != nil:
		return s.products.FindByID(ctx, *req.ProductID)
	case req.Barcode != "":
		return s.products.FindByBarcode(ctx, req.Barcode)
	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "Either product_id or barcode is required")
	}
}
