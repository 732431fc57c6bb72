package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnstack/learnhub/internal/domain/module"
	"github.com/learnstack/learnhub/internal/observability"
	"github.com/learnstack/learnhub/internal/utils"
)

type ModulesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewModulesRepo(pool *pgxpool.Pool, prom *observability.Prom) *ModulesRepo {
	return &ModulesRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *ModulesRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

const moduleColumns = `id, title, description, status, created_by, updated_by, created_at, updated_at`

func scanModule(row pgx.Row) (module.Module, error) {
	var m module.Module
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.Status, &m.CreatedBy, &m.UpdatedBy, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (repo *ModulesRepo) Create(ctx context.Context, m module.Module) (module.Module, error) {
	err := repo.observe("modules.create", func() error {
		_, e := repo.pool.Exec(ctx,
			`INSERT INTO modules (id, title, description, status, created_by, updated_by, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			m.ID, m.Title, m.Description, m.Status, m.CreatedBy, m.UpdatedBy, m.CreatedAt, m.UpdatedAt,
		)
		return e
	})

	if err != nil {
		return module.Module{}, err
	}

	return m, nil
}

func (repo *ModulesRepo) GetByID(ctx context.Context, id string) (module.Module, error) {
	var m module.Module
	err := repo.observe("modules.get_by_id", func() error {
		var e error
		m, e = scanModule(repo.pool.QueryRow(ctx, `SELECT `+moduleColumns+` FROM modules WHERE id = $1`, id))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return module.Module{}, module.ErrNotFound
		}
		return module.Module{}, err
	}

	return m, nil
}

// ListCursor pages modules keyset-style: strictly after the cursor id, in
// id order, fetching limit+1 rows to learn whether another page exists.
func (repo *ModulesRepo) ListCursor(ctx context.Context, filter module.ListFilter, afterID string) (items []module.Module, nextCursor *string, err error) {
	var conds []string
	var args []interface{}

	argsPosition := 1

	conds = append(conds, fmt.Sprintf("id > $%d", argsPosition))
	args = append(args, afterID)
	argsPosition++

	if filter.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, *filter.Status)
		argsPosition++
	}

	if filter.Query != nil && strings.TrimSpace(*filter.Query) != "" {
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", argsPosition))
		args = append(args, "%"+strings.TrimSpace(*filter.Query)+"%")
		argsPosition++
	}

	query := `SELECT ` + moduleColumns + ` FROM modules WHERE ` + strings.Join(conds, " AND ") +
		fmt.Sprintf(" ORDER BY id ASC LIMIT $%d", argsPosition)

	limitPlusOne := filter.Limit + 1
	args = append(args, limitPlusOne)

	var rows pgx.Rows

	err = repo.observe("modules.list_cursor", func() error {
		var qerr error
		rows, qerr = repo.pool.Query(ctx, query, args...)
		return qerr
	})

	if err != nil {
		return nil, nil, err
	}

	defer rows.Close()

	out := make([]module.Module, 0, filter.Limit)

	for rows.Next() {
		var m module.Module
		if scanErr := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Status, &m.CreatedBy, &m.UpdatedBy, &m.CreatedAt, &m.UpdatedAt); scanErr != nil {
			return nil, nil, scanErr
		}
		out = append(out, m)
	}

	if rows.Err() != nil {
		return nil, nil, rows.Err()
	}

	if len(out) > filter.Limit {
		out = out[:filter.Limit]
		last := out[len(out)-1]
		cur, encErr := utils.EncodeModuleCursor(last.ID)
		if encErr != nil {
			return nil, nil, encErr
		}
		nextCursor = &cur
	}

	return out, nextCursor, nil
}

func (repo *ModulesRepo) Update(ctx context.Context, id string, req module.UpdateModuleRequest, actorID string) (module.Module, error) {
	var m module.Module

	err := repo.observe("modules.update", func() error {
		var e error
		m, e = scanModule(repo.pool.QueryRow(ctx,
			`UPDATE modules
				SET title = $2,
					description = $3,
					status = $4,
					updated_by = $5,
					updated_at = NOW()
			 WHERE id = $1
			 RETURNING `+moduleColumns,
			id, req.Title, req.Description, req.Status, actorID,
		))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return module.Module{}, module.ErrNotFound
		}
		return module.Module{}, err
	}

	return m, nil
}

// Delete hard-deletes a module. Deletion is refused while pages exist so a
// single admin action cannot drop authored content; the page count check
// and the delete share one transaction.
func (repo *ModulesRepo) Delete(ctx context.Context, id string) (err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var dummy time.Time

	err = repo.observe("modules.delete.lock", func() error {
		return tx.QueryRow(ctx, `SELECT created_at FROM modules WHERE id = $1 FOR UPDATE`, id).Scan(&dummy)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = module.ErrNotFound
		}
		return
	}

	var pageCount int

	err = repo.observe("modules.delete.page_count", func() error {
		return tx.QueryRow(ctx, `SELECT COUNT(*) FROM module_pages WHERE module_id = $1`, id).Scan(&pageCount)
	})

	if err != nil {
		return
	}

	if pageCount > 0 {
		err = module.ErrHasPages
		return
	}

	err = repo.observe("modules.delete", func() error {
		_, e := tx.Exec(ctx, `DELETE FROM modules WHERE id = $1`, id)
		return e
	})

	if err != nil {
		return
	}

	err = tx.Commit(ctx)

	return
}
