package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/najiyasheri/pawsome/internal/domain/catalog"
)

const (
	productColumns = `id, name, description, brand, category_id, images, blocked,
		base_price, discount_percentage, created_at, updated_at`

	getProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	insertProductSQL = `INSERT INTO products (id, name, description, brand, category_id, images, blocked,
			base_price, discount_percentage)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateProductSQL = `UPDATE products SET name = $2, description = $3, brand = $4, category_id = $5,
			images = $6, base_price = $7, discount_percentage = $8, updated_at = now()
		WHERE id = $1`

	setProductBlockedSQL = `UPDATE products SET blocked = $2, updated_at = now() WHERE id = $1`

	variantColumns = `id, product_id, size, additional_price, stock, active`

	getVariantSQL = `SELECT ` + variantColumns + ` FROM variants WHERE id = $1`

	variantsByProductSQL = `SELECT ` + variantColumns + ` FROM variants WHERE product_id = $1 ORDER BY size`

	insertVariantSQL = `INSERT INTO variants (id, product_id, size, additional_price, stock, active)
		VALUES ($1, $2, $3, $4, $5, $6)`

	updateVariantSQL = `UPDATE variants SET size = $2, additional_price = $3, stock = $4, active = $5
		WHERE id = $1`

	categoryColumns = `id, name, description, blocked, offer_percentage`

	getCategorySQL = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

	insertCategorySQL = `INSERT INTO categories (id, name, description, offer_percentage)
		VALUES ($1, $2, $3, $4)`

	updateCategorySQL = `UPDATE categories SET name = $2, description = $3, offer_percentage = $4
		WHERE id = $1`

	setCategoryBlockedSQL = `UPDATE categories SET blocked = $2 WHERE id = $1`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListProducts returns a page of products matching the filter, plus the total
// match count for pagination.
func (r *CatalogRepository) ListProducts(ctx context.Context, params catalog.ListParams) ([]catalog.Product, int, error) {
	where := `WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR brand ILIKE '%' || $1 || '%')
		AND ($2 = '' OR category_id = $2)
		AND ($3 OR NOT blocked)`

	var total int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products `+where,
		params.Search, params.CategoryID, params.IncludeBlocked,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	page, perPage := normalizePage(params.Page, params.PerPage)
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products `+where+
			` ORDER BY created_at DESC LIMIT $4 OFFSET $5`,
		params.Search, params.CategoryID, params.IncludeBlocked,
		perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}

	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	return products, total, nil
}

// GetProduct returns a single product by id, blocked or not. Storefront
// visibility is the caller's concern.
func (r *CatalogRepository) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// CreateProduct persists a new product.
func (r *CatalogRepository) CreateProduct(ctx context.Context, p *catalog.Product) error {
	_, err := r.pool.Exec(ctx, insertProductSQL,
		p.ID, p.Name, p.Description, p.Brand, p.CategoryID, p.Images, p.Blocked,
		p.BasePrice, p.DiscountPercentage,
	)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

// UpdateProduct updates a product's mutable fields.
func (r *CatalogRepository) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Description, p.Brand, p.CategoryID, p.Images,
		p.BasePrice, p.DiscountPercentage,
	)
	if err != nil {
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

// SetProductBlocked hides or restores a product on the storefront.
func (r *CatalogRepository) SetProductBlocked(ctx context.Context, id string, blocked bool) error {
	tag, err := r.pool.Exec(ctx, setProductBlockedSQL, id, blocked)
	if err != nil {
		return fmt.Errorf("blocking product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

// GetVariant returns a single variant by id.
func (r *CatalogRepository) GetVariant(ctx context.Context, id string) (*catalog.Variant, error) {
	rows, err := r.pool.Query(ctx, getVariantSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting variant %q: %w", id, err)
	}

	v, err := pgx.CollectExactlyOneRow(rows, scanVariant)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrVariantNotFound
		}
		return nil, fmt.Errorf("getting variant %q: %w", id, err)
	}
	return &v, nil
}

// VariantsByProduct returns all variants of a product ordered by size.
func (r *CatalogRepository) VariantsByProduct(ctx context.Context, productID string) ([]catalog.Variant, error) {
	rows, err := r.pool.Query(ctx, variantsByProductSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("listing variants of %q: %w", productID, err)
	}
	return pgx.CollectRows(rows, scanVariant)
}

// CreateVariant persists a new variant.
func (r *CatalogRepository) CreateVariant(ctx context.Context, v *catalog.Variant) error {
	_, err := r.pool.Exec(ctx, insertVariantSQL,
		v.ID, v.ProductID, v.Size, v.AdditionalPrice, v.Stock, v.Active,
	)
	if err != nil {
		return fmt.Errorf("creating variant %q: %w", v.ID, err)
	}
	return nil
}

// UpdateVariant updates a variant's mutable fields.
func (r *CatalogRepository) UpdateVariant(ctx context.Context, v *catalog.Variant) error {
	tag, err := r.pool.Exec(ctx, updateVariantSQL,
		v.ID, v.Size, v.AdditionalPrice, v.Stock, v.Active,
	)
	if err != nil {
		return fmt.Errorf("updating variant %q: %w", v.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrVariantNotFound
	}
	return nil
}

// ListCategories returns all categories, optionally including blocked ones.
func (r *CatalogRepository) ListCategories(ctx context.Context, includeBlocked bool) ([]catalog.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE $1 OR NOT blocked ORDER BY name`,
		includeBlocked,
	)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, scanCategory)
}

// GetCategory returns a single category by id.
func (r *CatalogRepository) GetCategory(ctx context.Context, id string) (*catalog.Category, error) {
	rows, err := r.pool.Query(ctx, getCategorySQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting category %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("getting category %q: %w", id, err)
	}
	return &c, nil
}

// CreateCategory persists a new category.
func (r *CatalogRepository) CreateCategory(ctx context.Context, c *catalog.Category) error {
	_, err := r.pool.Exec(ctx, insertCategorySQL,
		c.ID, c.Name, c.Description, c.OfferPercentage,
	)
	if err != nil {
		return fmt.Errorf("creating category %q: %w", c.ID, err)
	}
	return nil
}

// UpdateCategory updates a category's mutable fields.
func (r *CatalogRepository) UpdateCategory(ctx context.Context, c *catalog.Category) error {
	tag, err := r.pool.Exec(ctx, updateCategorySQL,
		c.ID, c.Name, c.Description, c.OfferPercentage,
	)
	if err != nil {
		return fmt.Errorf("updating category %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrCategoryNotFound
	}
	return nil
}

// SetCategoryBlocked hides or restores a category and everything in it.
func (r *CatalogRepository) SetCategoryBlocked(ctx context.Context, id string, blocked bool) error {
	tag, err := r.pool.Exec(ctx, setCategoryBlockedSQL, id, blocked)
	if err != nil {
		return fmt.Errorf("blocking category %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrCategoryNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Brand, &p.CategoryID, &p.Images, &p.Blocked,
		&p.BasePrice, &p.DiscountPercentage, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func scanVariant(row pgx.CollectableRow) (catalog.Variant, error) {
	var v catalog.Variant
	err := row.Scan(&v.ID, &v.ProductID, &v.Size, &v.AdditionalPrice, &v.Stock, &v.Active)
	return v, err
}

func scanCategory(row pgx.CollectableRow) (catalog.Category, error) {
	var c catalog.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Blocked, &c.OfferPercentage)
	return c, err
}

// normalizePage clamps paging parameters to sane defaults.
func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
