package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/renshulabs/academy/core"
	"github.com/renshulabs/academy/core/fee"
)

type feeRepository struct {
	db *sqlx.DB
	rt retrier
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *sqlx.DB, conf *core.Config) *feeRepository {
	return &feeRepository{db: db, rt: newRetrier(conf.Database)}
}

type feeRow struct {
	ID          string      `db:"id"`
	StudentID   string      `db:"student_id"`
	Month       int         `db:"month"`
	Year        int         `db:"year"`
	MonthlyFee  float64     `db:"monthly_fee"`
	PaidAmount  float64     `db:"paid_amount"`
	BalanceDue  float64     `db:"balance_due"`
	Status      string      `db:"status"`
	ReceiptPath null.String `db:"receipt_path"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (repo feeRepository) pack(f fee.Fee) feeRow {
	return feeRow{
		ID:          f.ID,
		StudentID:   f.StudentID,
		Month:       f.Month,
		Year:        f.Year,
		MonthlyFee:  f.MonthlyFee,
		PaidAmount:  f.PaidAmount,
		BalanceDue:  f.BalanceDue,
		Status:      string(f.Status),
		ReceiptPath: null.NewString(f.ReceiptPath, f.ReceiptPath != ""),
		CreatedAt:   f.CreatedAt.UTC(),
		UpdatedAt:   f.UpdatedAt.UTC(),
	}
}

func (repo feeRepository) unpack(r feeRow) fee.Fee {
	return fee.Fee{
		ID:          r.ID,
		StudentID:   r.StudentID,
		Month:       r.Month,
		Year:        r.Year,
		MonthlyFee:  r.MonthlyFee,
		PaidAmount:  r.PaidAmount,
		BalanceDue:  r.BalanceDue,
		Status:      fee.Status(r.Status),
		ReceiptPath: r.ReceiptPath.String,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to fee.ErrNotFound
func (repo feeRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return fee.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo feeRepository) GetFee(ctx context.Context, studentID string, month, year int) (fee.Fee, error) {
	if _, err := uuid.Parse(studentID); err != nil {
		return fee.Fee{}, fee.ErrNotFound
	}

	var row feeRow
	err := repo.rt.do(ctx, func() error {
		return repo.db.GetContext(ctx, &row,
			`SELECT * FROM fees WHERE student_id = $1 AND month = $2 AND year = $3`,
			studentID, month, year)
	})
	if err != nil {
		return fee.Fee{}, repo.trapNoRowsErr(err, "finding fee record")
	}
	return repo.unpack(row), nil
}

func (repo feeRepository) QueryFees(ctx context.Context, filter *fee.QueryFilter, ordering []core.DBOrdering) ([]fee.Fee, error) {
	query := `SELECT * FROM fees`
	var clauses []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.StudentID != "" {
			clauses = append(clauses, fmt.Sprintf("student_id = %s", arg(filter.StudentID)))
		}
		if filter.Month != 0 {
			clauses = append(clauses, fmt.Sprintf("month = %s", arg(filter.Month)))
		}
		if filter.Year != 0 {
			clauses = append(clauses, fmt.Sprintf("year = %s", arg(filter.Year)))
		}
		if filter.Status != "" {
			clauses = append(clauses, fmt.Sprintf("status = %s", arg(string(filter.Status))))
		}
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += " ORDER BY " + strings.Join(orderList, ", ")
	} else {
		query += " ORDER BY year DESC, month DESC"
	}

	var rows []feeRow
	err := repo.rt.do(ctx, func() error {
		return repo.db.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying fees")
	}

	fees := make([]fee.Fee, 0, len(rows))
	for _, r := range rows {
		fees = append(fees, repo.unpack(r))
	}
	return fees, nil
}

// UpsertFee resolves conflicts on the (student_id, month, year) composite key:
// exactly one record per student per period.
func (repo feeRepository) UpsertFee(ctx context.Context, f fee.Fee) (fee.Fee, error) {
	f.ID = uuid.New().String()
	row := repo.pack(f)

	var saved feeRow
	err := repo.rt.do(ctx, func() error {
		stmt, err := repo.db.PrepareNamedContext(ctx,
			`INSERT INTO fees (id, student_id, month, year, monthly_fee, paid_amount, balance_due, status, receipt_path, created_at, updated_at)
			 VALUES (:id, :student_id, :month, :year, :monthly_fee, :paid_amount, :balance_due, :status, :receipt_path, :created_at, :updated_at)
			 ON CONFLICT (student_id, month, year) DO UPDATE
			 SET monthly_fee = EXCLUDED.monthly_fee, paid_amount = EXCLUDED.paid_amount,
			     balance_due = EXCLUDED.balance_due, status = EXCLUDED.status,
			     receipt_path = EXCLUDED.receipt_path, updated_at = EXCLUDED.updated_at
			 RETURNING *`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		return stmt.GetContext(ctx, &saved, row)
	})
	if err != nil {
		return fee.Fee{}, errors.Wrap(err, "upserting fee record")
	}
	return repo.unpack(saved), nil
}

func (repo feeRepository) DeleteFeesByID(ctx context.Context, ids ...string) error {
	err := repo.rt.do(ctx, func() error {
		_, err := repo.db.ExecContext(ctx, `DELETE FROM fees WHERE id = ANY($1::uuid[])`, pq.Array(ids))
		return err
	})
	return errors.Wrap(err, "deleting fee records")
}
