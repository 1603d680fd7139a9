package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/renshulabs/academy/core"
	"github.com/renshulabs/academy/core/progress"
)

type progressRepository struct {
	db *sqlx.DB
	rt retrier
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *sqlx.DB, conf *core.Config) *progressRepository {
	return &progressRepository{db: db, rt: newRetrier(conf.Database)}
}

type progressRow struct {
	ID          string    `db:"id"`
	StudentID   string    `db:"student_id"`
	Program     string    `db:"program"`
	Belt        string    `db:"belt"`
	StripeCount int       `db:"stripe_count"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type entryRow struct {
	ID         string      `db:"id"`
	StudentID  string      `db:"student_id"`
	FromBelt   null.String `db:"from_belt"`
	ToBelt     string      `db:"to_belt"`
	Notes      null.String `db:"notes"`
	PromotedAt time.Time   `db:"promoted_at"`
}

func (repo progressRepository) packProgress(p progress.Progress) progressRow {
	return progressRow{
		ID:          p.ID,
		StudentID:   p.StudentID,
		Program:     p.Program,
		Belt:        p.Belt,
		StripeCount: p.StripeCount,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
}

func (repo progressRepository) unpackProgress(r progressRow) progress.Progress {
	return progress.Progress{
		ID:          r.ID,
		StudentID:   r.StudentID,
		Program:     r.Program,
		Belt:        r.Belt,
		StripeCount: r.StripeCount,
		Status:      progress.Status(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (repo progressRepository) unpackEntry(r entryRow) progress.Entry {
	return progress.Entry{
		ID:         r.ID,
		StudentID:  r.StudentID,
		FromBelt:   r.FromBelt.String,
		ToBelt:     r.ToBelt,
		Notes:      r.Notes.String,
		PromotedAt: r.PromotedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to progress.ErrNotFound
func (repo progressRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return progress.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo progressRepository) GetProgress(ctx context.Context, studentID, program string) (progress.Progress, error) {
	if _, err := uuid.Parse(studentID); err != nil {
		return progress.Progress{}, progress.ErrNotFound
	}

	var row progressRow
	err := repo.rt.do(ctx, func() error {
		return repo.db.GetContext(ctx, &row,
			`SELECT * FROM student_progress WHERE student_id = $1 AND program ILIKE $2`,
			studentID, program)
	})
	if err != nil {
		return progress.Progress{}, repo.trapNoRowsErr(err, "finding progress record")
	}
	return repo.unpackProgress(row), nil
}

func (repo progressRepository) QueryProgress(ctx context.Context, studentID string) ([]progress.Progress, error) {
	var rows []progressRow
	err := repo.rt.do(ctx, func() error {
		return repo.db.SelectContext(ctx, &rows,
			`SELECT * FROM student_progress WHERE student_id = $1 ORDER BY program ASC`, studentID)
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying progress records")
	}

	out := make([]progress.Progress, 0, len(rows))
	for _, r := range rows {
		out = append(out, repo.unpackProgress(r))
	}
	return out, nil
}

// SaveProgress resolves conflicts on the (student_id, program) key: one
// progress record per discipline track.
func (repo progressRepository) SaveProgress(ctx context.Context, p progress.Progress) (progress.Progress, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	row := repo.packProgress(p)

	var saved progressRow
	err := repo.rt.do(ctx, func() error {
		stmt, err := repo.db.PrepareNamedContext(ctx,
			`INSERT INTO student_progress (id, student_id, program, belt, stripe_count, status, created_at, updated_at)
			 VALUES (:id, :student_id, :program, :belt, :stripe_count, :status, :created_at, :updated_at)
			 ON CONFLICT (student_id, program) DO UPDATE
			 SET belt = EXCLUDED.belt, stripe_count = EXCLUDED.stripe_count,
			     status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
			 RETURNING *`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		return stmt.GetContext(ctx, &saved, row)
	})
	if err != nil {
		return progress.Progress{}, errors.Wrap(err, "saving progress record")
	}
	return repo.unpackProgress(saved), nil
}

// AppendEntry only ever inserts; history rows are immutable.
func (repo progressRepository) AppendEntry(ctx context.Context, e progress.Entry) (progress.Entry, error) {
	e.ID = uuid.New().String()
	row := entryRow{
		ID:         e.ID,
		StudentID:  e.StudentID,
		FromBelt:   null.NewString(e.FromBelt, e.FromBelt != ""),
		ToBelt:     e.ToBelt,
		Notes:      null.NewString(e.Notes, e.Notes != ""),
		PromotedAt: e.PromotedAt.UTC(),
	}

	var saved entryRow
	err := repo.rt.do(ctx, func() error {
		stmt, err := repo.db.PrepareNamedContext(ctx,
			`INSERT INTO promotion_history (id, student_id, from_belt, to_belt, notes, promoted_at)
			 VALUES (:id, :student_id, :from_belt, :to_belt, :notes, :promoted_at)
			 RETURNING *`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		return stmt.GetContext(ctx, &saved, row)
	})
	if err != nil {
		return progress.Entry{}, errors.Wrap(err, "appending promotion history")
	}
	return repo.unpackEntry(saved), nil
}

func (repo progressRepository) QueryEntries(ctx context.Context, studentID string, ordering []core.DBOrdering) ([]progress.Entry, error) {
	query := `SELECT * FROM promotion_history WHERE student_id = $1`
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += " ORDER BY " + strings.Join(orderList, ", ")
	} else {
		query += " ORDER BY promoted_at DESC"
	}

	var rows []entryRow
	err := repo.rt.do(ctx, func() error {
		return repo.db.SelectContext(ctx, &rows, query, studentID)
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying promotion history")
	}

	out := make([]progress.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, repo.unpackEntry(r))
	}
	return out, nil
}
