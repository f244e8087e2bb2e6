package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voltmart/storefront/internal/model"
)

// Sort keys accepted by ProductFilter.
const (
	SortName      = "name"
	SortPriceLow  = "price_low"
	SortPriceHigh = "price_high"
	SortNewest    = "newest"
)

var productSortClauses = map[string]string{
	SortName:      "name ASC",
	SortPriceLow:  "price ASC",
	SortPriceHigh: "price DESC",
	SortNewest:    "created_at DESC",
}

type ProductFilter struct {
	ActiveOnly bool
	CategoryID *uuid.UUID
	Search     string
	Sort       string
	Limit      int
	Offset     int
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int, error)
}

type pgProductRepo struct{ pool *pgxpool.Pool }

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool}
}

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	product.ID = uuid.New()
	query := `INSERT INTO products (id, name, description, price, stock_quantity, image_url, brand, model, specifications, is_active, category_id, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
			  RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.Price, product.StockQuantity,
		product.ImageURL, product.Brand, product.Model, product.Specifications,
		product.IsActive, product.CategoryID,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT id, name, description, price, stock_quantity, image_url, brand, model, specifications, is_active, category_id, created_at, updated_at
			  FROM products WHERE id = $1`
	p := &model.Product{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.ImageURL,
		&p.Brand, &p.Model, &p.Specifications, &p.IsActive, &p.CategoryID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *pgProductRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, int, error) {
	orderBy, ok := productSortClauses[filter.Sort]
	if !ok {
		orderBy = productSortClauses[SortName]
	}

	// Search matches name, description, and brand case-insensitively.
	where := `WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%' OR brand ILIKE '%' || $1 || '%')
			  AND (NOT $2 OR is_active)
			  AND ($3::uuid IS NULL OR category_id = $3)`

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM products `+where,
		filter.Search, filter.ActiveOnly, filter.CategoryID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`SELECT id, name, description, price, stock_quantity, image_url, brand, model, specifications, is_active, category_id, created_at, updated_at
		FROM products %s ORDER BY %s LIMIT $4 OFFSET $5`, where, orderBy)

	rows, err := r.pool.Query(ctx, query,
		filter.Search, filter.ActiveOnly, filter.CategoryID, filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.ImageURL,
			&p.Brand, &p.Model, &p.Specifications, &p.IsActive, &p.CategoryID,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, total, nil
}
