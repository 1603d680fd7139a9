package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/renshulabs/academy/core"
	"github.com/renshulabs/academy/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		students = append(students, *s)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students
}

func (repo *studentRepository) CheckNationalIDUniqueness(ctx context.Context, nationalID string, excludedStudents ...student.Student) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]bool, len(excludedStudents))
	for _, s := range excludedStudents {
		excluded[s.ID] = true
	}

	for _, s := range repo.query() {
		if s.NationalID == nationalID && !excluded[s.ID] {
			return student.ErrNationalIDExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = uuid.New().String()
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := repo.query()
	if filter == nil {
		return students, nil
	}

	// students with search keyword matching Name or NationalID ?
	if filter.Search != "" {
		var filtered []student.Student
		search := strings.ToLower(filter.Search)
		for _, s := range students {
			if strings.Contains(strings.ToLower(s.Name), search) ||
				strings.Contains(s.NationalID, filter.Search) {
				filtered = append(filtered, s)
			}
		}
		students = filtered
	}
	if students != nil && filter.Program != "" {
		var filtered []student.Student
		for _, s := range students {
			if strings.EqualFold(s.Program, filter.Program) {
				filtered = append(filtered, s)
			}
		}
		students = filtered
	}
	if students != nil && !filter.JoinedFrom.IsZero() {
		var filtered []student.Student
		timeUTC := filter.JoinedFrom.UTC()
		for _, s := range students {
			if s.JoinedOn.Equal(timeUTC) || s.JoinedOn.After(timeUTC) {
				filtered = append(filtered, s)
			}
		}
		students = filtered
	}
	if students != nil && !filter.JoinedTo.IsZero() {
		var filtered []student.Student
		timeUTC := filter.JoinedTo.UTC()
		for _, s := range students {
			if s.JoinedOn.Before(timeUTC) || s.JoinedOn.Equal(timeUTC) {
				filtered = append(filtered, s)
			}
		}
		students = filtered
	}

	return students, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[s.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	orig.Name = s.Name
	orig.NationalID = s.NationalID
	orig.Program = s.Program
	orig.JoinedOn = s.JoinedOn
	orig.GuardianName = s.GuardianName
	orig.GuardianPhone = s.GuardianPhone
	orig.AvatarPath = s.AvatarPath
	orig.UpdatedAt = s.UpdatedAt

	repo.db.table[s.ID] = orig
	return *orig, nil
}

func (repo *studentRepository) DeleteStudentsByID(ctx context.Context, ids ...string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var count int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			count++
		}
	}
	return count, nil
}
