package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voltmart/storefront/internal/model"
)

// ErrInsufficientStock aborts a checkout whose stock decrement would drive a
// product's stock_quantity below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// orderNumberAttempts bounds the regenerate-and-retry loop on order_number
// collisions. The suffix space is 2^32, so more than one retry is already
// vanishingly unlikely.
const orderNumberAttempts = 5

type OrderRepository interface {
	// PlaceOrder runs the whole checkout in a single transaction: insert the
	// order, insert its items, conditionally decrement stock for each item,
	// and clear the user's cart. Any failure rolls the whole thing back.
	PlaceOrder(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListByUser(ctx context.Context, userID string) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

func (r *pgOrderRepo) PlaceOrder(ctx context.Context, order *model.Order) error {
	// A unique violation aborts the postgres transaction, so a collision on
	// order_number retries the whole attempt with a fresh number.
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = model.NewOrderNumber()
		err := r.placeOrderOnce(ctx, order)
		if isOrderNumberCollision(err) {
			continue
		}
		return err
	}
	return fmt.Errorf("place order: exhausted %d order number attempts", orderNumberAttempts)
}

func (r *pgOrderRepo) placeOrderOnce(ctx context.Context, order *model.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	order.ID = uuid.New()
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (id, order_number, user_id, status, total_amount, shipping_address, phone_number, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()) RETURNING created_at, updated_at`,
		order.ID, order.OrderNumber, order.UserID, order.Status, order.TotalAmount,
		order.ShippingAddress, order.PhoneNumber, order.Notes,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.ID = uuid.New()
		item.OrderID = order.ID
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, quantity, price)
			 VALUES ($1, $2, $3, $4, $5)`,
			item.ID, item.OrderID, item.ProductID, item.Quantity, item.Price,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}

		ct, err := tx.Exec(ctx,
			`UPDATE products SET stock_quantity = stock_quantity - $2, updated_at = NOW()
			 WHERE id = $1 AND stock_quantity >= $2`,
			item.ProductID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("product %s: %w", item.ProductID, ErrInsufficientStock)
		}
	}

	_, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, order.UserID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isOrderNumberCollision(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == "23505" &&
		pgErr.ConstraintName == "orders_order_number_key"
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order := &model.Order{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, order_number, user_id, status, total_amount, shipping_address, phone_number, notes, created_at, updated_at
		 FROM orders WHERE id = $1`, id,
	).Scan(
		&order.ID, &order.OrderNumber, &order.UserID, &order.Status, &order.TotalAmount,
		&order.ShippingAddress, &order.PhoneNumber, &order.Notes,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, quantity, price FROM order_items WHERE order_id = $1`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.OrderID = order.ID
		order.Items = append(order.Items, item)
	}
	return order, nil
}

func (r *pgOrderRepo) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_number, status, total_amount, shipping_address, phone_number, notes, created_at, updated_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o := model.Order{UserID: userID}
		if err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.Status, &o.TotalAmount,
			&o.ShippingAddress, &o.PhoneNumber, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
