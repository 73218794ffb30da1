package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/najiyasheri/pawsome/internal/domain/catalog"
)

// Service encapsulates cart business rules on top of the cart and catalog
// repositories.
type Service struct {
	carts   Repository
	catalog catalog.Repository
}

// NewService creates a cart Service.
func NewService(carts Repository, cat catalog.Repository) *Service {
	return &Service{carts: carts, catalog: cat}
}

// lookup fetches and validates the (product, variant, category) triple for a
// cart mutation.
func (s *Service) lookup(ctx context.Context, productID, variantID string) (*catalog.Product, *catalog.Variant, *catalog.Category, error) {
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, nil, nil, err
	}
	v, err := s.catalog.GetVariant(ctx, variantID)
	if err != nil {
		return nil, nil, nil, err
	}
	c, err := s.catalog.GetCategory(ctx, p.CategoryID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := catalog.Purchasable(p, v, c); err != nil {
		return nil, nil, nil, err
	}
	return p, v, c, nil
}

// Add puts quantity units of a variant into the cart, merging with an
// existing line. The resulting quantity must not exceed the variant's stock.
func (s *Service) Add(ctx context.Context, userID, productID, variantID string, quantity int) error {
	if quantity <= 0 {
		quantity = 1
	}

	_, v, _, err := s.lookup(ctx, productID, variantID)
	if err != nil {
		return err
	}

	lines, err := s.carts.Lines(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "load cart")
	}

	total := quantity
	for _, l := range lines {
		if l.ProductID == productID && l.VariantID == variantID {
			total += l.Quantity
			break
		}
	}
	if total > v.Stock {
		return ErrInsufficientStock
	}

	return s.carts.Upsert(ctx, userID, Line{
		ProductID: productID,
		VariantID: variantID,
		Quantity:  total,
	})
}

// UpdateQuantity adjusts a line's quantity by delta. Increases are bounded by
// stock; a line reaching zero is removed.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID, variantID string, delta int) error {
	lines, err := s.carts.Lines(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "load cart")
	}

	var existing *Line
	for i := range lines {
		if lines[i].ProductID == productID && lines[i].VariantID == variantID {
			existing = &lines[i]
			break
		}
	}
	if existing == nil {
		return ErrLineNotFound
	}

	next := existing.Quantity + delta
	if next <= 0 {
		return s.carts.Remove(ctx, userID, productID, variantID)
	}

	if delta > 0 {
		_, v, _, err := s.lookup(ctx, productID, variantID)
		if err != nil {
			return err
		}
		if next > v.Stock {
			return ErrInsufficientStock
		}
	}

	return s.carts.Upsert(ctx, userID, Line{
		ProductID: productID,
		VariantID: variantID,
		Quantity:  next,
	})
}

// Remove deletes the matching line from the cart.
func (s *Service) Remove(ctx context.Context, userID, productID, variantID string) error {
	return s.carts.Remove(ctx, userID, productID, variantID)
}

// Clear empties the user's cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.carts.Clear(ctx, userID)
}

// Contents returns the priced cart view. Lines whose product or variant has
// since been blocked or deactivated remain visible but are priced as stored;
// checkout revalidates them.
func (s *Service) Contents(ctx context.Context, userID string) (*View, error) {
	lines, err := s.carts.Lines(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	view := &View{Subtotal: decimal.Zero}
	for _, l := range lines {
		p, err := s.catalog.GetProduct(ctx, l.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				continue
			}
			return nil, err
		}
		v, err := s.catalog.GetVariant(ctx, l.VariantID)
		if err != nil {
			if errors.Is(err, catalog.ErrVariantNotFound) {
				continue
			}
			return nil, err
		}
		c, err := s.catalog.GetCategory(ctx, p.CategoryID)
		if err != nil {
			return nil, err
		}

		unit := catalog.UnitPrice(p, v, c.OfferPercentage)
		sub := unit.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)

		image := ""
		if len(p.Images) > 0 {
			image = p.Images[0]
		}
		view.Lines = append(view.Lines, PricedLine{
			Line:        l,
			ProductName: p.Name,
			Image:       image,
			Size:        v.Size,
			UnitPrice:   unit,
			OldPrice:    catalog.OldPrice(p, v),
			Subtotal:    sub,
			Stock:       v.Stock,
		})
		view.Subtotal = view.Subtotal.Add(sub)
	}

	return view, nil
}
