package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnstack/learnhub/internal/domain/module"
	"github.com/learnstack/learnhub/internal/domain/page"
	"github.com/learnstack/learnhub/internal/observability"
)

type PagesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPagesRepo(pool *pgxpool.Pool, prom *observability.Prom) *PagesRepo {
	return &PagesRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *PagesRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

const pageColumns = `id, module_id, type, position, version, content, created_at, updated_at`

func scanPage(row pgx.Row) (page.Page, error) {
	var p page.Page
	err := row.Scan(&p.ID, &p.ModuleID, &p.Type, &p.Position, &p.Version, &p.Content, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (repo *PagesRepo) ListByModule(ctx context.Context, moduleID string) (pages []page.Page, err error) {
	var rows pgx.Rows

	err = repo.observe("pages.list_by_module", func() error {
		var qerr error
		rows, qerr = repo.pool.Query(ctx,
			`SELECT `+pageColumns+` FROM module_pages WHERE module_id = $1 ORDER BY position ASC`,
			moduleID,
		)
		return qerr
	})

	if err != nil {
		return
	}

	defer rows.Close()

	pages = make([]page.Page, 0)

	for rows.Next() {
		var p page.Page

		e := rows.Scan(&p.ID, &p.ModuleID, &p.Type, &p.Position, &p.Version, &p.Content, &p.CreatedAt, &p.UpdatedAt)

		if e != nil {
			err = e
			return
		}
		pages = append(pages, p)
	}

	if e := rows.Err(); e != nil {
		err = e
		return
	}

	// an empty list still needs a 404 when the module itself is missing

	if len(pages) == 0 {
		var dummy string

		err = repo.observe("pages.list_by_module.check_module_exists", func() error {
			return repo.pool.QueryRow(ctx, `SELECT id FROM modules WHERE id = $1`, moduleID).Scan(&dummy)
		})

		if errors.Is(err, pgx.ErrNoRows) {
			err = module.ErrNotFound
			return
		}

		if err != nil {
			return
		}
	}

	return
}

// Create inserts a page under the module. Without an explicit position the
// page lands after the current last one; with one, later pages shift right
// so positions stay contiguous. The module row is locked for the duration
// so two concurrent creates cannot claim the same slot.
func (repo *PagesRepo) Create(ctx context.Context, req page.CreatePageRequest) (created page.Page, err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var dummy string

	err = repo.observe("pages.create.module_lock", func() error {
		return tx.QueryRow(ctx, `SELECT id FROM modules WHERE id = $1 FOR UPDATE`, req.ModuleID).Scan(&dummy)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = module.ErrNotFound
		}
		return
	}

	var count int

	err = repo.observe("pages.create.count", func() error {
		return tx.QueryRow(ctx, `SELECT COUNT(*) FROM module_pages WHERE module_id = $1`, req.ModuleID).Scan(&count)
	})

	if err != nil {
		return
	}

	position := count

	if req.Position != nil && *req.Position < count {
		position = *req.Position

		err = repo.observe("pages.create.shift", func() error {
			_, e := tx.Exec(ctx,
				`UPDATE module_pages SET position = position + 1 WHERE module_id = $1 AND position >= $2`,
				req.ModuleID, position,
			)
			return e
		})

		if err != nil {
			return
		}
	}

	created = page.NewFromCreateRequest(req, position)

	err = repo.observe("pages.create.insert", func() error {
		_, e := tx.Exec(ctx,
			`INSERT INTO module_pages (id, module_id, type, position, version, content, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			created.ID, created.ModuleID, created.Type, created.Position, created.Version, created.Content, created.CreatedAt, created.UpdatedAt,
		)
		return e
	})

	if err != nil {
		return
	}

	err = tx.Commit(ctx)

	return
}

// GetByID is scoped to the owning module; a page id that exists under a
// different module reads as not found.
func (repo *PagesRepo) GetByID(ctx context.Context, moduleID, pageID string) (page.Page, error) {
	var p page.Page
	err := repo.observe("pages.get_by_id", func() error {
		var e error
		p, e = scanPage(repo.pool.QueryRow(ctx,
			`SELECT `+pageColumns+` FROM module_pages WHERE id = $1 AND module_id = $2`,
			pageID, moduleID,
		))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return page.Page{}, page.ErrNotFound
		}
		return page.Page{}, err
	}

	return p, nil
}

// Update applies a patch only when expectedVersion matches the stored
// version, bumping the version in the same statement. One conditional
// write, so a concurrent writer cannot slip between check and update.
func (repo *PagesRepo) Update(ctx context.Context, moduleID, pageID string, req page.UpdatePageRequest, expectedVersion int) (page.Page, error) {
	sets := []string{"version = version + 1", "updated_at = NOW()"}
	args := []interface{}{pageID, moduleID, expectedVersion}
	argsPosition := 4

	if req.Type != nil {
		sets = append(sets, fmt.Sprintf("type = $%d", argsPosition))
		args = append(args, *req.Type)
		argsPosition++
	}

	if len(req.Content) > 0 {
		sets = append(sets, fmt.Sprintf("content = $%d", argsPosition))
		args = append(args, req.Content)
		argsPosition++
	}

	query := `UPDATE module_pages SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 AND module_id = $2 AND version = $3 RETURNING ` + pageColumns

	var p page.Page

	err := repo.observe("pages.update", func() error {
		var e error
		p, e = scanPage(repo.pool.QueryRow(ctx, query, args...))
		return e
	})

	if err == nil {
		return p, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return page.Page{}, err
	}

	// zero rows: missing page vs. wrong version
	var dummy int

	err = repo.observe("pages.update.conflict_check", func() error {
		return repo.pool.QueryRow(ctx,
			`SELECT version FROM module_pages WHERE id = $1 AND module_id = $2`,
			pageID, moduleID,
		).Scan(&dummy)
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return page.Page{}, page.ErrNotFound
	}

	if err != nil {
		return page.Page{}, err
	}

	return page.Page{}, page.ErrVersionConflict
}

// Delete removes the page and closes the position gap it leaves behind.
func (repo *PagesRepo) Delete(ctx context.Context, moduleID, pageID string) (deleted page.Page, err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = repo.observe("pages.delete", func() error {
		var e error
		deleted, e = scanPage(tx.QueryRow(ctx,
			`DELETE FROM module_pages WHERE id = $1 AND module_id = $2 RETURNING `+pageColumns,
			pageID, moduleID,
		))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = page.ErrNotFound
		}
		return
	}

	err = repo.observe("pages.delete.close_gap", func() error {
		_, e := tx.Exec(ctx,
			`UPDATE module_pages SET position = position - 1 WHERE module_id = $1 AND position > $2`,
			moduleID, deleted.Position,
		)
		return e
	})

	if err != nil {
		return
	}

	err = tx.Commit(ctx)

	return
}

// Reorder rewrites the total order of a module's pages in one transaction.
// The input must be exactly the current page set; position becomes the
// index in the input. Either every row is updated or none is.
func (repo *PagesRepo) Reorder(ctx context.Context, moduleID string, orderedPageIDs []string) (pages []page.Page, err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var dummy string

	err = repo.observe("pages.reorder.module_lock", func() error {
		return tx.QueryRow(ctx, `SELECT id FROM modules WHERE id = $1 FOR UPDATE`, moduleID).Scan(&dummy)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = module.ErrNotFound
		}
		return
	}

	// lock and collect the current page set

	current := make(map[string]struct{})

	err = repo.observe("pages.reorder.lock_set", func() error {
		rows, qerr := tx.Query(ctx, `SELECT id FROM module_pages WHERE module_id = $1 FOR UPDATE`, moduleID)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			if scanErr := rows.Scan(&id); scanErr != nil {
				return scanErr
			}
			current[id] = struct{}{}
		}
		return rows.Err()
	})

	if err != nil {
		return
	}

	// the input must be a permutation of the current set: no missing,
	// no extra, no duplicate ids

	if len(orderedPageIDs) != len(current) {
		err = page.ErrOrderMismatch
		return
	}

	seen := make(map[string]struct{}, len(orderedPageIDs))

	for _, id := range orderedPageIDs {
		if _, dup := seen[id]; dup {
			err = page.ErrOrderMismatch
			return
		}
		seen[id] = struct{}{}

		if _, ok := current[id]; !ok {
			err = page.ErrOrderMismatch
			return
		}
	}

	for idx, id := range orderedPageIDs {
		e := repo.observe("pages.reorder.set_position", func() error {
			_, execErr := tx.Exec(ctx,
				`UPDATE module_pages SET position = $1, updated_at = NOW() WHERE id = $2`,
				idx, id,
			)
			return execErr
		})

		if e != nil {
			err = e
			return
		}
	}

	var rows pgx.Rows

	err = repo.observe("pages.reorder.reload", func() error {
		var qerr error
		rows, qerr = tx.Query(ctx,
			`SELECT `+pageColumns+` FROM module_pages WHERE module_id = $1 ORDER BY position ASC`,
			moduleID,
		)
		return qerr
	})

	if err != nil {
		return
	}

	defer rows.Close()

	pages = make([]page.Page, 0, len(orderedPageIDs))

	for rows.Next() {
		var p page.Page
		if scanErr := rows.Scan(&p.ID, &p.ModuleID, &p.Type, &p.Position, &p.Version, &p.Content, &p.CreatedAt, &p.UpdatedAt); scanErr != nil {
			err = scanErr
			return
		}
		pages = append(pages, p)
	}

	if e := rows.Err(); e != nil {
		err = e
		return
	}

	err = tx.Commit(ctx)

	return
}

func (repo *PagesRepo) CountForModule(ctx context.Context, moduleID string) (int, error) {
	var total int
	err := repo.observe("pages.count_for_module", func() error {
		return repo.pool.QueryRow(ctx, `SELECT COUNT(*) FROM module_pages WHERE module_id = $1`, moduleID).Scan(&total)
	})
	return total, err
}
