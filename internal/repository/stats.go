package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voltmart/storefront/internal/model"
)

type StatsRepository interface {
	Dashboard(ctx context.Context) (*model.DashboardStats, error)
}

type pgStatsRepo struct{ pool *pgxpool.Pool }

func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &pgStatsRepo{pool: pool}
}

func (r *pgStatsRepo) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{}
	err := r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM orders WHERE status = 'pending')`,
	).Scan(&stats.Products, &stats.Orders, &stats.Users, &stats.PendingOrders)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return stats, nil
}
