package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/renshulabs/academy/core"
	"github.com/renshulabs/academy/core/progress"
)

type progressRepository struct {
	db *progressTable
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *DB) progress.Repository {
	return &progressRepository{db: db.progress}
}

func progressKey(studentID, program string) string {
	return studentID + "|" + strings.ToLower(program)
}

func (repo *progressRepository) GetProgress(ctx context.Context, studentID, program string) (progress.Progress, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.table[progressKey(studentID, program)]; ok {
		return *p, nil
	}
	return progress.Progress{}, progress.ErrNotFound
}

func (repo *progressRepository) QueryProgress(ctx context.Context, studentID string) ([]progress.Progress, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	out := make([]progress.Progress, 0)
	for _, p := range repo.db.table {
		if p.StudentID == studentID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Program < out[j].Program })
	return out, nil
}

func (repo *progressRepository) SaveProgress(ctx context.Context, p progress.Progress) (progress.Progress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := progressKey(p.StudentID, p.Program)
	if orig, ok := repo.db.table[key]; ok {
		orig.Belt = p.Belt
		orig.StripeCount = p.StripeCount
		orig.Status = p.Status
		orig.UpdatedAt = p.UpdatedAt
		return *orig, nil
	}

	p.ID = uuid.New().String()
	repo.db.table[key] = &p
	return p, nil
}

func (repo *progressRepository) AppendEntry(ctx context.Context, e progress.Entry) (progress.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e.ID = uuid.New().String()
	repo.db.entries = append(repo.db.entries, e)
	return e, nil
}

func (repo *progressRepository) QueryEntries(ctx context.Context, studentID string, ordering []core.DBOrdering) ([]progress.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	out := make([]progress.Entry, 0)
	for _, e := range repo.db.entries {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PromotedAt.After(out[j].PromotedAt) })
	return out, nil
}
