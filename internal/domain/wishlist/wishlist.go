// Package wishlist implements per-user saved products and the move-to-cart
// operation.
package wishlist

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/najiyasheri/pawsome/internal/domain/cart"
	"github.com/najiyasheri/pawsome/internal/domain/catalog"
)

// ErrNotInWishlist is returned when removing a product that was never saved.
var ErrNotInWishlist = errors.New("product not in wishlist")

// Entry is one saved product.
type Entry struct {
	UserID    string
	ProductID string
	AddedAt   time.Time
}

// Repository defines persistence for wishlist entries.
type Repository interface {
	List(ctx context.Context, userID string) ([]Entry, error)
	Add(ctx context.Context, e *Entry) error
	// Remove deletes the entry, returning ErrNotInWishlist if absent.
	Remove(ctx context.Context, userID, productID string) error
	Contains(ctx context.Context, userID, productID string) (bool, error)
}

// Item is an entry joined with live catalog data for display.
type Item struct {
	ProductID string
	Name      string
	Image     string
	Price     decimal.Decimal
	OldPrice  decimal.Decimal
	InStock   bool
	AddedAt   time.Time
}

// Service applies wishlist rules on top of the repository.
type Service struct {
	entries Repository
	catalog catalog.Repository
	carts   *cart.Service
}

// NewService creates a wishlist Service.
func NewService(entries Repository, cat catalog.Repository, carts *cart.Service) *Service {
	return &Service{entries: entries, catalog: cat, carts: carts}
}

// Add saves a product. Adding an already-saved product is a no-op.
func (s *Service) Add(ctx context.Context, userID, productID string) error {
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if p.Blocked {
		return catalog.ErrNotPurchasable
	}

	ok, err := s.entries.Contains(ctx, userID, productID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return s.entries.Add(ctx, &Entry{
		UserID:    userID,
		ProductID: productID,
		AddedAt:   time.Now(),
	})
}

// Remove deletes a saved product.
func (s *Service) Remove(ctx context.Context, userID, productID string) error {
	return s.entries.Remove(ctx, userID, productID)
}

// List returns the wishlist joined with current catalog data. Products that
// vanished from the catalog are dropped from the view.
func (s *Service) List(ctx context.Context, userID string) ([]Item, error) {
	entries, err := s.entries.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		p, err := s.catalog.GetProduct(ctx, e.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				continue
			}
			return nil, err
		}
		c, err := s.catalog.GetCategory(ctx, p.CategoryID)
		if err != nil {
			return nil, err
		}
		variants, err := s.catalog.VariantsByProduct(ctx, p.ID)
		if err != nil {
			return nil, err
		}

		inStock := false
		price := decimal.Zero
		oldPrice := decimal.Zero
		if len(variants) > 0 {
			v := variants[0]
			price = catalog.UnitPrice(p, &v, c.OfferPercentage)
			oldPrice = catalog.OldPrice(p, &v)
			for _, vv := range variants {
				if vv.Stock > 0 {
					inStock = true
					break
				}
			}
		}
		image := ""
		if len(p.Images) > 0 {
			image = p.Images[0]
		}
		items = append(items, Item{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     image,
			Price:     price,
			OldPrice:  oldPrice,
			InStock:   inStock,
			AddedAt:   e.AddedAt,
		})
	}
	return items, nil
}

// MoveToCart adds the saved product's chosen variant to the cart and removes
// the wishlist entry. The entry stays when the cart add fails.
func (s *Service) MoveToCart(ctx context.Context, userID, productID, variantID string, qty int) error {
	if err := s.carts.Add(ctx, userID, productID, variantID, qty); err != nil {
		return err
	}
	err := s.entries.Remove(ctx, userID, productID)
	if errors.Is(err, ErrNotInWishlist) {
		return nil
	}
	return err
}
