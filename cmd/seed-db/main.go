package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/najiyasheri/pawsome/internal/storage/postgres"
)

type categoryJSON struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	OfferPercentage decimal.Decimal `json:"offerPercentage"`
}

type variantJSON struct {
	ID              string          `json:"id"`
	Size            string          `json:"size"`
	AdditionalPrice decimal.Decimal `json:"additionalPrice"`
	Stock           int             `json:"stock"`
}

type productJSON struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Brand              string          `json:"brand"`
	CategoryID         string          `json:"categoryId"`
	Images             []string        `json:"images"`
	BasePrice          decimal.Decimal `json:"basePrice"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	Variants           []variantJSON   `json:"variants"`
}

type catalogJSON struct {
	Categories []categoryJSON `json:"categories"`
	Products   []productJSON  `json:"products"`
}

const (
	upsertCategorySQL = `INSERT INTO categories (id, name, description, offer_percentage)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			offer_percentage = EXCLUDED.offer_percentage`

	upsertProductSQL = `INSERT INTO products
			(id, name, description, brand, category_id, images, base_price, discount_percentage)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			brand = EXCLUDED.brand,
			category_id = EXCLUDED.category_id,
			images = EXCLUDED.images,
			base_price = EXCLUDED.base_price,
			discount_percentage = EXCLUDED.discount_percentage,
			updated_at = now()`

	upsertVariantSQL = `INSERT INTO variants (id, product_id, size, additional_price, stock)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			size = EXCLUDED.size,
			additional_price = EXCLUDED.additional_price,
			stock = EXCLUDED.stock`

	upsertAdminSQL = `INSERT INTO users
			(id, name, email, password_hash, verified, admin, referral_code)
		VALUES ($1, $2, $3, $4, TRUE, TRUE, $5)
		ON CONFLICT (email) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			verified = TRUE,
			admin = TRUE,
			updated_at = now()`
)

func main() {
	var (
		databaseURL   string
		catalogFile   string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.StringVar(&adminEmail, "admin-email", "", "admin account email (or PAWSOME_ADMIN_EMAIL env)")
	flag.StringVar(&adminPassword, "admin-password", "", "admin account password (or PAWSOME_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminEmail == "" {
		adminEmail = os.Getenv("PAWSOME_ADMIN_EMAIL")
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("PAWSOME_ADMIN_PASSWORD")
	}
	if adminEmail == "" || adminPassword == "" {
		slog.Error("admin credentials are required: set --admin-email/--admin-password or PAWSOME_ADMIN_EMAIL/PAWSOME_ADMIN_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile, adminEmail, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCatalog(ctx, pool, catalogFile); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if err := seedAdmin(ctx, pool, adminEmail, adminPassword); err != nil {
		return errors.Wrap(err, "seed admin user")
	}

	return nil
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool, catalogFile string) error {
	slog.Info("reading catalog file", slog.String("path", catalogFile))

	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}

	var cat catalogJSON
	if err := json.Unmarshal(data, &cat); err != nil {
		return errors.Wrap(err, "parse catalog JSON")
	}

	slog.Info("upserting categories", slog.Int("count", len(cat.Categories)))

	for _, c := range cat.Categories {
		if _, err := pool.Exec(ctx, upsertCategorySQL,
			c.ID, c.Name, c.Description, c.OfferPercentage,
		); err != nil {
			return errors.Wrapf(err, "upsert category %s", c.ID)
		}

		slog.Info("upserted category", slog.String("id", c.ID), slog.String("name", c.Name))
	}

	slog.Info("upserting products", slog.Int("count", len(cat.Products)))

	for _, p := range cat.Products {
		if _, err := pool.Exec(ctx, upsertProductSQL,
			p.ID, p.Name, p.Description, p.Brand, p.CategoryID, p.Images,
			p.BasePrice, p.DiscountPercentage,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		for _, v := range p.Variants {
			if _, err := pool.Exec(ctx, upsertVariantSQL,
				v.ID, p.ID, v.Size, v.AdditionalPrice, v.Stock,
			); err != nil {
				return errors.Wrapf(err, "upsert variant %s of product %s", v.ID, p.ID)
			}
		}

		slog.Info("upserted product",
			slog.String("id", p.ID),
			slog.String("name", p.Name),
			slog.Int("variants", len(p.Variants)),
		)
	}

	return nil
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	slog.Info("seeding admin user", slog.String("email", email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}

	referralCode := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])

	if _, err := pool.Exec(ctx, upsertAdminSQL,
		uuid.NewString(), "Admin", strings.ToLower(email), string(hash), referralCode,
	); err != nil {
		return errors.Wrap(err, "upsert admin user")
	}

	slog.Info("upserted admin user", slog.String("email", email))

	return nil
}
