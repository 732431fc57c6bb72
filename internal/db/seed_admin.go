package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnstack/learnhub/internal/config"
	"github.com/learnstack/learnhub/internal/domain/user"
	"github.com/learnstack/learnhub/internal/security"
)

// EnsureAdminUser bootstraps the first admin account from config so a
// fresh deployment is administrable before any identity sync happens.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, cfg.AdminEmail).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	u := user.NewFromCreateRequest(user.CreateUserRequest{
		Email:  cfg.AdminEmail,
		Name:   cfg.AdminName,
		Role:   user.RoleAdmin,
		Status: user.StatusActive,
	}, hash)

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, email, name, role, status, password_hash, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		u.ID, u.Email, u.Name, u.Role, u.Status, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)

	return err
}
