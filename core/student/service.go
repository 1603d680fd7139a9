package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/renshulabs/academy/core"
)

var (
	// errors
	ErrNotFound         = errors.New("student not found")
	ErrNationalIDExists = errors.New("a student with this national ID already exists")
)

type (
	Repository interface {
		CheckNationalIDUniqueness(ctx context.Context, nationalID string, excludedStudents ...Student) error
		CreateStudent(ctx context.Context, s Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		// QueryStudents applies AND on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Name or NationalID.
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		// DeleteStudentsByID is a hard delete; no tombstones are kept.
		DeleteStudentsByID(ctx context.Context, ids ...string) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckNationalIDUniqueness(natID string, exclStudents ...Student) error {
	if err := svc.repo.CheckNationalIDUniqueness(context.Background(), natID, exclStudents...); err != nil {
		if errors.Cause(err) == ErrNationalIDExists {
			return core.NewValidationError(err, core.FieldError{Field: "national_id", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	s := Student{
		Name:          ns.Name,
		NationalID:    ns.NationalID,
		Program:       ns.Program,
		JoinedOn:      ns.JoinedOn,
		GuardianName:  ns.GuardianName,
		GuardianPhone: ns.GuardianPhone,
		AvatarPath:    ns.AvatarPath,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateStudent(ctx, s)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	s := Student{
		ID:            id,
		Name:          us.Name,
		NationalID:    us.NationalID,
		Program:       us.Program,
		JoinedOn:      us.JoinedOn,
		GuardianName:  us.GuardianName,
		GuardianPhone: us.GuardianPhone,
		AvatarPath:    us.AvatarPath,
		UpdatedAt:     time.Now().UTC(),
	}
	return svc.repo.UpdateStudent(ctx, s)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteStudentsByID(ctx, ids...)
	return err
}
