package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnstack/learnhub/internal/domain/progress"
	"github.com/learnstack/learnhub/internal/observability"
)

type ProgressRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewProgressRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProgressRepo {
	return &ProgressRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *ProgressRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Upsert records a completion once per (user, page); repeats are no-ops.
// Returns whether a new record was written.
func (repo *ProgressRepo) Upsert(ctx context.Context, rec progress.Record) (created bool, err error) {
	var affected int64

	err = repo.observe("progress.upsert", func() error {
		tag, e := repo.pool.Exec(ctx,
			`INSERT INTO progress_records (user_id, module_id, page_id, completed_at)
			 VALUES ($1,$2,$3,$4)
			 ON CONFLICT (user_id, page_id) DO NOTHING`,
			rec.UserID, rec.ModuleID, rec.PageID, rec.CompletedAt,
		)
		affected = tag.RowsAffected()
		return e
	})

	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (repo *ProgressRepo) ListForUser(ctx context.Context, userID, moduleID string) (recs []progress.Record, err error) {
	var rows pgx.Rows

	err = repo.observe("progress.list_for_user", func() error {
		var qerr error
		rows, qerr = repo.pool.Query(ctx,
			`SELECT user_id, module_id, page_id, completed_at
			 FROM progress_records
			 WHERE user_id = $1 AND module_id = $2
			 ORDER BY completed_at ASC`,
			userID, moduleID,
		)
		return qerr
	})

	if err != nil {
		return
	}

	defer rows.Close()

	recs = make([]progress.Record, 0)

	for rows.Next() {
		var r progress.Record
		var completedAt time.Time

		if scanErr := rows.Scan(&r.UserID, &r.ModuleID, &r.PageID, &completedAt); scanErr != nil {
			err = scanErr
			return
		}
		r.CompletedAt = completedAt
		recs = append(recs, r)
	}

	err = rows.Err()

	return
}
