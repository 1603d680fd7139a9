package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/renshulabs/academy/core"
	"github.com/renshulabs/academy/core/fee"
)

type feeRepository struct {
	db *feeTable
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *DB) fee.Repository {
	return &feeRepository{db: db.fee}
}

func (repo *feeRepository) query() []fee.Fee {
	fees := make([]fee.Fee, 0, len(repo.db.table))
	for _, f := range repo.db.table {
		fees = append(fees, *f)
	}
	sort.Slice(fees, func(i, j int) bool {
		if fees[i].Year != fees[j].Year {
			return fees[i].Year > fees[j].Year
		}
		return fees[i].Month > fees[j].Month
	})
	return fees
}

func (repo *feeRepository) GetFee(ctx context.Context, studentID string, month, year int) (fee.Fee, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, f := range repo.db.table {
		if f.StudentID == studentID && f.Month == month && f.Year == year {
			return *f, nil
		}
	}
	return fee.Fee{}, fee.ErrNotFound
}

func (repo *feeRepository) QueryFees(ctx context.Context, filter *fee.QueryFilter, ordering []core.DBOrdering) ([]fee.Fee, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	fees := repo.query()
	if filter == nil {
		return fees, nil
	}

	if filter.StudentID != "" {
		var filtered []fee.Fee
		for _, f := range fees {
			if f.StudentID == filter.StudentID {
				filtered = append(filtered, f)
			}
		}
		fees = filtered
	}
	if fees != nil && filter.Month != 0 {
		var filtered []fee.Fee
		for _, f := range fees {
			if f.Month == filter.Month {
				filtered = append(filtered, f)
			}
		}
		fees = filtered
	}
	if fees != nil && filter.Year != 0 {
		var filtered []fee.Fee
		for _, f := range fees {
			if f.Year == filter.Year {
				filtered = append(filtered, f)
			}
		}
		fees = filtered
	}
	if fees != nil && filter.Status != "" {
		var filtered []fee.Fee
		for _, f := range fees {
			if f.Status == filter.Status {
				filtered = append(filtered, f)
			}
		}
		fees = filtered
	}

	return fees, nil
}

func (repo *feeRepository) UpsertFee(ctx context.Context, f fee.Fee) (fee.Fee, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// resolve on the (student_id, month, year) composite key
	for _, orig := range repo.db.table {
		if orig.StudentID == f.StudentID && orig.Month == f.Month && orig.Year == f.Year {
			orig.MonthlyFee = f.MonthlyFee
			orig.PaidAmount = f.PaidAmount
			orig.BalanceDue = f.BalanceDue
			orig.Status = f.Status
			orig.ReceiptPath = f.ReceiptPath
			orig.UpdatedAt = f.UpdatedAt
			return *orig, nil
		}
	}

	f.ID = uuid.New().String()
	repo.db.table[f.ID] = &f
	return f, nil
}

func (repo *feeRepository) DeleteFeesByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
