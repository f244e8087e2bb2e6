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

type CartRepository interface {
	// ListByUser returns the user's cart items joined with the current
	// product rows, oldest first.
	ListByUser(ctx context.Context, userID string) ([]model.CartItem, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*model.CartItem, error)
	// AddItem upserts on the (user, product) pair: an existing row has its
	// quantity incremented instead of a duplicate being created.
	AddItem(ctx context.Context, item *model.CartItem) error
	UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	Clear(ctx context.Context, userID string) error
}

type pgCartRepo struct{ pool *pgxpool.Pool }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool}
}

const cartItemColumns = `ci.id, ci.user_id, ci.product_id, ci.quantity, ci.created_at,
	p.id, p.name, p.description, p.price, p.stock_quantity, p.image_url, p.brand, p.model,
	p.specifications, p.is_active, p.category_id, p.created_at, p.updated_at`

func scanCartItem(row pgx.Row) (*model.CartItem, error) {
	item := &model.CartItem{Product: &model.Product{}}
	p := item.Product
	err := row.Scan(
		&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt,
		&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.ImageURL,
		&p.Brand, &p.Model, &p.Specifications, &p.IsActive, &p.CategoryID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *pgCartRepo) ListByUser(ctx context.Context, userID string) ([]model.CartItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+cartItemColumns+`
		 FROM cart_items ci JOIN products p ON p.id = ci.product_id
		 WHERE ci.user_id = $1 ORDER BY ci.created_at`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var items []model.CartItem
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, *item)
	}
	return items, nil
}

func (r *pgCartRepo) GetItem(ctx context.Context, itemID uuid.UUID) (*model.CartItem, error) {
	item, err := scanCartItem(r.pool.QueryRow(ctx,
		`SELECT `+cartItemColumns+`
		 FROM cart_items ci JOIN products p ON p.id = ci.product_id
		 WHERE ci.id = $1`, itemID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	return item, nil
}

func (r *pgCartRepo) AddItem(ctx context.Context, item *model.CartItem) error {
	item.ID = uuid.New()
	query := `INSERT INTO cart_items (id, user_id, product_id, quantity, created_at)
			  VALUES ($1, $2, $3, $4, NOW())
			  ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + $4
			  RETURNING id, quantity, created_at`
	err := r.pool.QueryRow(ctx, query,
		item.ID, item.UserID, item.ProductID, item.Quantity,
	).Scan(&item.ID, &item.Quantity, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

func (r *pgCartRepo) UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE cart_items SET quantity = $2 WHERE id = $1`, itemID, quantity,
	)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCartRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCartRepo) Clear(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
