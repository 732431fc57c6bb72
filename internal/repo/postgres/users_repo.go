package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnstack/learnhub/internal/domain/user"
	"github.com/learnstack/learnhub/internal/observability"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *UsersRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

const userColumns = `id, email, name, role, status, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Status, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (repo *UsersRepo) List(ctx context.Context, filter user.ListFilter) (items []user.User, total int, err error) {
	baseQuery := `SELECT ` + userColumns + `, COUNT(*) OVER() AS total FROM users`

	var conds []string
	var args []interface{}

	argsPosition := 1

	if filter.Role != nil {
		conds = append(conds, fmt.Sprintf("role = $%d", argsPosition))
		args = append(args, *filter.Role)
		argsPosition++
	}

	if filter.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, *filter.Status)
		argsPosition++
	}

	// case-insensitive substring match on name or email
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", argsPosition, argsPosition))
		args = append(args, "%"+strings.TrimSpace(*filter.Search)+"%")
		argsPosition++
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// stable ordering for pagination
	query += fmt.Sprintf(" ORDER BY created_at ASC, id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)

	var rows pgx.Rows

	err = repo.observe("users.list", func() error {
		var qerr error
		rows, qerr = repo.pool.Query(ctx, query, args...)
		return qerr
	})

	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	items = make([]user.User, 0, filter.Limit)

	for rows.Next() {
		var u user.User
		var t int

		scanErr := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Status, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt, &t)

		if scanErr != nil {
			return nil, 0, scanErr
		}

		total = t
		items = append(items, u)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return items, total, nil
}

func (repo *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User
	err := repo.observe("users.get_by_id", func() error {
		var e error
		u, e = scanUser(repo.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (repo *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := repo.observe("users.get_by_email", func() error {
		var e error
		u, e = scanUser(repo.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (repo *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := repo.observe("users.create", func() error {
		_, e := repo.pool.Exec(ctx,
			`INSERT INTO users (id, email, name, role, status, password_hash, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			u.ID, u.Email, u.Name, u.Role, u.Status, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
		)
		return e
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

// Update applies a patch guarded by the lastKnownUpdate token. The compare
// and the write are one conditional statement so two racing callers cannot
// both pass a check against a stale read.
func (repo *UsersRepo) Update(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id, req.LastKnownUpdate.UTC()}
	argsPosition := 3

	if req.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", argsPosition))
		args = append(args, *req.Name)
		argsPosition++
	}

	if req.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", argsPosition))
		args = append(args, *req.Email)
		argsPosition++
	}

	if req.Role != nil {
		sets = append(sets, fmt.Sprintf("role = $%d", argsPosition))
		args = append(args, *req.Role)
		argsPosition++
	}

	if req.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, *req.Status)
		argsPosition++
	}

	query := `UPDATE users SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 AND updated_at <= $2 RETURNING ` + userColumns

	var u user.User

	err := repo.observe("users.update", func() error {
		var e error
		u, e = scanUser(repo.pool.QueryRow(ctx, query, args...))
		return e
	})

	if err == nil {
		return u, nil
	}

	if IsUniqueViolation(err) {
		return user.User{}, user.ErrEmailTaken
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, err
	}

	// zero rows: tell a missing user apart from a stale token
	var storedUpdatedAt time.Time

	err = repo.observe("users.update.stale_check", func() error {
		return repo.pool.QueryRow(ctx, `SELECT updated_at FROM users WHERE id = $1`, id).Scan(&storedUpdatedAt)
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}

	if err != nil {
		return user.User{}, err
	}

	return user.User{}, user.ErrStaleUpdate
}

func (repo *UsersRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := repo.observe("users.delete", func() error {
		tag, e := repo.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return e
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return user.ErrNotFound
	}

	return nil
}
