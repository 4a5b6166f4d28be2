package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HerbHall/rigforge/pkg/catalog"
	"github.com/HerbHall/rigforge/pkg/plugin"
)

// ProductFilter controls which products are returned by List.
type ProductFilter struct {
	Category string // Exact category match.
	Search   string // Substring of name or description.
	InStock  bool   // Only products with stock > 0.
}

// ProductRepository provides CRUD access to shop products.
type ProductRepository interface {
	// Get returns a single product by ID.
	Get(ctx context.Context, id string) (*catalog.Item, error)

	// List returns a filtered, paginated list of products.
	List(ctx context.Context, filter ProductFilter, opts ListOptions) (*ListResult[catalog.Item], error)

	// All returns every product, optionally restricted to one category,
	// ordered by ID. An empty category returns the whole catalog.
	All(ctx context.Context, category string) ([]catalog.Item, error)

	// Create inserts a new product. If item.ID is empty, a UUID is generated.
	Create(ctx context.Context, item *catalog.Item) error

	// Update replaces an existing product's fields.
	Update(ctx context.Context, item *catalog.Item) error

	// Upsert inserts or replaces a product by ID.
	Upsert(ctx context.Context, item *catalog.Item) error

	// Delete removes a product by ID.
	Delete(ctx context.Context, id string) error

	// Count returns the total number of products.
	Count(ctx context.Context) (int, error)
}

// Compile-time interface guard.
var _ ProductRepository = (*SQLiteProductRepository)(nil)

// SQLiteProductRepository implements ProductRepository using SQLite.
type SQLiteProductRepository struct {
	db *sql.DB
}

// NewSQLiteProductRepository creates a ProductRepository and runs the
// shop_products migrations.
func NewSQLiteProductRepository(ctx context.Context, store plugin.Store) (*SQLiteProductRepository, error) {
	if err := store.Migrate(ctx, "shop", productMigrations); err != nil {
		return nil, fmt.Errorf("shop product migrations: %w", err)
	}
	return &SQLiteProductRepository{db: store.DB()}, nil
}

// productColumns is the shared column list for product queries.
const productColumns = `id, name, category, description, specs, price, image_url, stock`

func (r *SQLiteProductRepository) Get(ctx context.Context, id string) (*catalog.Item, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM shop_products WHERE id = ?`, id)
	it, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product %q: %w", id, err)
	}
	return it, nil
}

func (r *SQLiteProductRepository) List(ctx context.Context, filter ProductFilter, opts ListOptions) (*ListResult[catalog.Item], error) {
	opts = normalizeListOptions(opts)

	// Validate sortBy against allowed columns.
	sortCol := "created_at"
	allowedSorts := map[string]string{
		"name":       "name",
		"price":      "price",
		"stock":      "stock",
		"created_at": "created_at",
	}
	if opts.SortBy != "" {
		if col, ok := allowedSorts[opts.SortBy]; ok {
			sortCol = col
		}
	}

	where := "1=1"
	var args []any

	if filter.Category != "" {
		where += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		where += " AND (name LIKE ? OR description LIKE ?)"
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	if filter.InStock {
		where += " AND stock > 0"
	}

	var total int
	//nolint:gosec // where uses parameterized placeholders only
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM shop_products WHERE "+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	queryArgs := make([]any, 0, len(args)+2)
	queryArgs = append(queryArgs, args...)
	queryArgs = append(queryArgs, opts.Limit, opts.Offset)

	orderDir := "DESC"
	if opts.SortOrder == "asc" {
		orderDir = "ASC"
	}

	//nolint:gosec // where and sortCol are validated above, not user input
	query := fmt.Sprintf(
		"SELECT %s FROM shop_products WHERE %s ORDER BY %s %s, id ASC LIMIT ? OFFSET ?",
		productColumns, where, sortCol, orderDir,
	)

	items, err := r.queryProducts(ctx, query, queryArgs...)
	if err != nil {
		return nil, err
	}
	return &ListResult[catalog.Item]{Items: items, Total: total}, nil
}

func (r *SQLiteProductRepository) All(ctx context.Context, category string) ([]catalog.Item, error) {
	if category == "" {
		return r.queryProducts(ctx,
			`SELECT `+productColumns+` FROM shop_products ORDER BY id`)
	}
	return r.queryProducts(ctx,
		`SELECT `+productColumns+` FROM shop_products WHERE category = ? ORDER BY id`, category)
}

func (r *SQLiteProductRepository) queryProducts(ctx context.Context, query string, args ...any) ([]catalog.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := []catalog.Item{}
	for rows.Next() {
		it, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return items, nil
}

func (r *SQLiteProductRepository) Create(ctx context.Context, item *catalog.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := item.Validate(); err != nil {
		return err
	}
	specsJSON, err := marshalSpecs(item.Specs)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO shop_products (
			id, name, category, description, specs, price, image_url, stock,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, item.Category, item.Description, specsJSON,
		item.Price, nullString(item.ImageURL), item.Stock, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create product %q: %w", item.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *SQLiteProductRepository) Update(ctx context.Context, item *catalog.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	specsJSON, err := marshalSpecs(item.Specs)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE shop_products SET
			name = ?, category = ?, description = ?, specs = ?, price = ?,
			image_url = ?, stock = ?, updated_at = ?
		WHERE id = ?`,
		item.Name, item.Category, item.Description, specsJSON, item.Price,
		nullString(item.ImageURL), item.Stock, time.Now().UTC(),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteProductRepository) Upsert(ctx context.Context, item *catalog.Item) error {
	if item.ID == "" {
		return fmt.Errorf("upsert product: %w: id is required", catalog.ErrInvalidItem)
	}
	if err := item.Validate(); err != nil {
		return err
	}
	specsJSON, err := marshalSpecs(item.Specs)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO shop_products (
			id, name, category, description, specs, price, image_url, stock,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, category = excluded.category,
			description = excluded.description, specs = excluded.specs,
			price = excluded.price, image_url = excluded.image_url,
			stock = excluded.stock, updated_at = excluded.updated_at`,
		item.ID, item.Name, item.Category, item.Description, specsJSON,
		item.Price, nullString(item.ImageURL), item.Stock, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert product %q: %w", item.ID, err)
	}
	return nil
}

func (r *SQLiteProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM shop_products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteProductRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shop_products`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*catalog.Item, error) {
	var it catalog.Item
	var specsJSON string
	var imageURL sql.NullString
	err := row.Scan(&it.ID, &it.Name, &it.Category, &it.Description,
		&specsJSON, &it.Price, &imageURL, &it.Stock)
	if err != nil {
		return nil, err
	}
	it.Specs = map[string]string{}
	if specsJSON != "" {
		if err := json.Unmarshal([]byte(specsJSON), &it.Specs); err != nil {
			return nil, fmt.Errorf("decode specs for %q: %w", it.ID, err)
		}
	}
	if imageURL.Valid {
		u := imageURL.String
		it.ImageURL = &u
	}
	return &it, nil
}

func marshalSpecs(specs map[string]string) (string, error) {
	if specs == nil {
		return "{}", nil
	}
	b, err := json.Marshal(specs)
	if err != nil {
		return "", fmt.Errorf("encode specs: %w", err)
	}
	return string(b), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// isUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY
// constraint failure.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}

// productMigrations defines the database schema for shop_products.
var productMigrations = []plugin.Migration{
	{
		Version:     1,
		Description: "create shop_products table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE shop_products (
					id          TEXT PRIMARY KEY,
					name        TEXT NOT NULL,
					category    TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL DEFAULT '',
					specs       TEXT NOT NULL DEFAULT '{}',
					price       REAL NOT NULL DEFAULT 0,
					image_url   TEXT,
					stock       INTEGER NOT NULL DEFAULT 0,
					created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`)
			if err != nil {
				return err
			}
			_, err = tx.Exec(`CREATE INDEX idx_shop_products_category ON shop_products(category)`)
			return err
		},
	},
}
