package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voltmart/storefront/internal/model"
)

type UserRepository interface {
	// Upsert inserts the user or refreshes the provider-supplied profile
	// fields. The admin flag is never touched by an upsert.
	Upsert(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type pgUserRepo struct{ pool *pgxpool.Pool }

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepo{pool: pool}
}

func (r *pgUserRepo) Upsert(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, email, first_name, last_name, profile_image_url, created_at, updated_at)
			  VALUES ($1, NULLIF($2, ''), $3, $4, $5, NOW(), NOW())
			  ON CONFLICT (id) DO UPDATE SET
				  email = EXCLUDED.email,
				  first_name = EXCLUDED.first_name,
				  last_name = EXCLUDED.last_name,
				  profile_image_url = EXCLUDED.profile_image_url,
				  updated_at = NOW()
			  RETURNING is_admin, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.FirstName, user.LastName, user.ProfileImageURL,
	).Scan(&user.IsAdmin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT id, COALESCE(email, ''), first_name, last_name, profile_image_url, is_admin, created_at, updated_at
			  FROM users WHERE id = $1`
	user := &model.User{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName,
		&user.ProfileImageURL, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT id, COALESCE(email, ''), first_name, last_name, profile_image_url, is_admin, created_at, updated_at
			  FROM users WHERE email = $1`
	user := &model.User{}
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName,
		&user.ProfileImageURL, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}
