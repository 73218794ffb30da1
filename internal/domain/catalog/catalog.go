// Package catalog holds the product/variant/category reference data and the
// storefront pricing rule.
package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrProductNotFound is returned when a requested product does not exist
	// or is hidden from the storefront.
	ErrProductNotFound = errors.New("product not found")
	// ErrVariantNotFound is returned when a requested variant does not exist.
	ErrVariantNotFound = errors.New("variant not found")
	// ErrCategoryNotFound is returned when a requested category does not exist.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrNotPurchasable is returned when a variant is inactive or its product
	// or category is blocked.
	ErrNotPurchasable = errors.New("product is not available for purchase")
)

// Category groups products and may carry a category-wide offer percentage.
type Category struct {
	ID              string
	Name            string
	Description     string
	Blocked         bool
	OfferPercentage decimal.Decimal
}

// Product is a catalog item. Purchasable stock lives on its variants.
type Product struct {
	ID                 string
	Name               string
	Description        string
	Brand              string
	CategoryID         string
	Images             []string
	Blocked            bool
	BasePrice          decimal.Decimal
	DiscountPercentage decimal.Decimal
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Variant is a size-specific SKU of a product with its own stock and price delta.
type Variant struct {
	ID              string
	ProductID       string
	Size            string
	AdditionalPrice decimal.Decimal
	Stock           int
	Active          bool
}

// ListParams controls storefront and admin product listings.
type ListParams struct {
	Search     string
	CategoryID string
	// IncludeBlocked is set by admin listings only.
	IncludeBlocked bool
	Page           int
	PerPage        int
}

// Repository defines persistence operations for the catalog.
type Repository interface {
	ListProducts(ctx context.Context, params ListParams) ([]Product, int, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	SetProductBlocked(ctx context.Context, id string, blocked bool) error

	GetVariant(ctx context.Context, id string) (*Variant, error)
	VariantsByProduct(ctx context.Context, productID string) ([]Variant, error)
	CreateVariant(ctx context.Context, v *Variant) error
	UpdateVariant(ctx context.Context, v *Variant) error

	ListCategories(ctx context.Context, includeBlocked bool) ([]Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	SetCategoryBlocked(ctx context.Context, id string, blocked bool) error
}

var hundred = decimal.NewFromInt(100)

// EffectiveDiscount returns the larger of the product discount and the
// category offer. Only one applies; they never stack.
func EffectiveDiscount(productDiscount, categoryOffer decimal.Decimal) decimal.Decimal {
	if categoryOffer.GreaterThan(productDiscount) {
		return categoryOffer
	}
	return productDiscount
}

// UnitPrice computes the effective storefront price of a variant:
//
//	(basePrice + additionalPrice) * (1 - max(productDiscount, categoryOffer)/100)
//
// rounded to 2 decimal places.
func UnitPrice(p *Product, v *Variant, categoryOffer decimal.Decimal) decimal.Decimal {
	gross := p.BasePrice.Add(v.AdditionalPrice)
	discount := EffectiveDiscount(p.DiscountPercentage, categoryOffer)
	price := gross.Mul(hundred.Sub(discount)).Div(hundred)
	return price.Round(2)
}

// OldPrice is the undiscounted price shown struck through in listings.
func OldPrice(p *Product, v *Variant) decimal.Decimal {
	return p.BasePrice.Add(v.AdditionalPrice).Round(2)
}

// Purchasable reports whether a variant can be added to a cart or ordered.
// The variant must belong to the product, be active, and neither the product
// nor its category may be blocked.
func Purchasable(p *Product, v *Variant, c *Category) error {
	if v.ProductID != p.ID {
		return ErrVariantNotFound
	}
	if !v.Active || p.Blocked || c.Blocked {
		return ErrNotPurchasable
	}
	return nil
}
