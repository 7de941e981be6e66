package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/erp/pos/internal/domain/catalog"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxImageSize is the largest product image accepted for upload
const MaxImageSize = 5 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageStorage stores product images in an object store
type ImageStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// ProductService handles product-related business operations
type ProductService struct {
	productRepo catalog.ProductRepository
	watcher     catalog.ProductWatcher
	images      ImageStorage
	events      shared.EventPublisher
	logger      *zap.Logger
}

// ProductServiceOption configures optional collaborators
type ProductServiceOption func(*ProductService)

// WithImageStorage enables image upload
func WithImageStorage(images ImageStorage) ProductServiceOption {
	return func(s *ProductService) { s.images = images }
}

// WithEventPublisher publishes product events after each write
func WithEventPublisher(events shared.EventPublisher) ProductServiceOption {
	return func(s *ProductService) { s.events = events }
}

// WithWatcher enables live product listings
func WithWatcher(watcher catalog.ProductWatcher) ProductServiceOption {
	return func(s *ProductService) { s.watcher = watcher }
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, logger *zap.Logger, opts ...ProductServiceOption) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ProductService{productRepo: productRepo, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if req.Barcode != "" {
		if err := s.ensureBarcodeFree(ctx, req.Barcode, uuid.Nil); err != nil {
			return nil, err
		}
	}

	product, err := catalog.NewProduct(req.Name, req.Price, req.Quantity, req.LowStockThreshold)
	if err != nil {
		return nil, err
	}
	if req.Barcode != "" {
		if err := product.SetBarcode(req.Barcode); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	return s.toResponse(ctx, product), nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, product), nil
}

// GetByBarcode retrieves a product by its barcode, as scanned at the till
func (s *ProductService) GetByBarcode(ctx context.Context, barcode string) (*ProductResponse, error) {
	product, err := s.productRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, product), nil
}

// List retrieves a page of products and the total number matching the filter
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	domainFilter := filter.ToDomain()

	products, err := s.productRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.productRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = *s.toResponse(ctx, &products[i])
	}
	return out, total, nil
}

// Update updates descriptive fields, price, threshold and barcode
func (s *ProductService) Update(ctx context.Context, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	name, price, threshold := product.Name, product.Price, product.LowStockThreshold
	if req.Name != nil {
		name = *req.Name
	}
	if req.Price != nil {
		price = *req.Price
	}
	if req.LowStockThreshold != nil {
		threshold = *req.LowStockThreshold
	}
	if err := product.Update(name, price, threshold); err != nil {
		return nil, err
	}

	if req.Barcode != nil && *req.Barcode != product.Barcode {
		if *req.Barcode != "" {
			if err := s.ensureBarcodeFree(ctx, *req.Barcode, product.ID); err != nil {
				return nil, err
			}
		}
		if err := product.SetBarcode(*req.Barcode); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	return s.toResponse(ctx, product), nil
}

// AdjustStock changes the on-hand quantity by delta.
// Like checkout, the new quantity is written without a version check.
func (s *ProductService) AdjustStock(ctx context.Context, productID uuid.UUID, req AdjustStockRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	reason := req.Reason
	if reason == "" {
		reason = "manual adjustment"
	}
	if err := product.AdjustStock(req.Delta, reason); err != nil {
		return nil, err
	}

	if err := s.productRepo.UpdateStock(ctx, product.ID, product.Quantity); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	return s.toResponse(ctx, product), nil
}

// Delete deletes a product and, best effort, its image
func (s *ProductService) Delete(ctx context.Context, productID uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, productID); err != nil {
		return err
	}

	if product.ImageKey != "" && s.images != nil {
		if err := s.images.Delete(ctx, product.ImageKey); err != nil {
			s.logger.Warn("Failed to delete product image",
				zap.String("product_id", productID.String()),
				zap.String("key", product.ImageKey),
				zap.Error(err))
		}
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, catalog.NewProductDeletedEvent(productID)); err != nil {
			s.logger.Warn("Failed to publish product deleted event", zap.Error(err))
		}
	}
	return nil
}

// UploadImage stores a new product image and replaces the previous one
func (s *ProductService) UploadImage(ctx context.Context, productID uuid.UUID, body io.Reader, size int64, contentType string) (*ProductResponse, error) {
	if s.images == nil {
		return nil, shared.NewDomainError("STORAGE_DISABLED", "Image storage is not configured")
	}
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return nil, shared.NewDomainError("INVALID_IMAGE", fmt.Sprintf("Unsupported image type: %s", contentType))
	}
	if size <= 0 || size > MaxImageSize {
		return nil, shared.NewDomainError("INVALID_IMAGE", "Image must be between 1 byte and 5 MB")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	key := path.Join("products", product.ID.String(), uuid.NewString()+ext)
	if err := s.images.Put(ctx, key, body, size, contentType); err != nil {
		return nil, fmt.Errorf("failed to store product image: %w", err)
	}

	old := product.ImageKey
	product.SetImage(key)
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	if old != "" {
		if err := s.images.Delete(ctx, old); err != nil {
			s.logger.Warn("Failed to delete replaced product image", zap.String("key", old), zap.Error(err))
		}
	}
	return s.toResponse(ctx, product), nil
}

// Watch streams the products matching filter until stop is called.
// Paging fields of the filter are ignored; the full matching set is delivered each time.
func (s *ProductService) Watch(ctx context.Context, filter ProductListFilter, fn func([]ProductResponse)) (stop func(), err error) {
	if s.watcher == nil {
		return nil, shared.NewDomainError("WATCH_UNAVAILABLE", "Live product listings are not available")
	}
	domainFilter := filter.ToDomain()
	domainFilter.Page, domainFilter.PageSize = 0, 0

	return s.watcher.Watch(ctx, domainFilter, func(products []catalog.Product) {
		out := make([]ProductResponse, len(products))
		for i := range products {
			out[i] = *s.toResponse(ctx, &products[i])
		}
		fn(out)
	})
}

func (s *ProductService) ensureBarcodeFree(ctx context.Context, barcode string, self uuid.UUID) error {
	existing, err := s.productRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return shared.NewDomainError("ALREADY_EXISTS", "Product with this barcode already exists")
	}
	return nil
}

func (s *ProductService) toResponse(ctx context.Context, product *catalog.Product) *ProductResponse {
	resp := ToProductResponse(product)
	if product.ImageKey != "" && s.images != nil {
		url, err := s.images.URL(ctx, product.ImageKey)
		if err != nil {
			s.logger.Warn("Failed to resolve product image URL", zap.String("key", product.ImageKey), zap.Error(err))
		} else {
			resp.ImageURL = url
		}
	}
	return &resp
}

func (s *ProductService) publish(ctx context.Context, product *catalog.Product) {
	events := product.PullDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish product events",
			zap.String("product_id", product.ID.String()),
			zap.Error(err))
	}
}
