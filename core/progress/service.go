package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/renshulabs/academy/core"
	"github.com/renshulabs/academy/core/discipline"
)

var (
	// errors
	ErrNotFound = errors.New("progress record not found")

	errUnknownProgram = "program has no progression configuration"
	errUnknownRank    = "not a rank of this program"
	errNoStripes      = "program has no stripe system"
)

// PartialPromotionError reports that the student's belt advanced but the
// history append failed afterwards: the audit trail is missing the event. The
// caller must surface it and retry the history write; the promotion itself is
// in effect.
type PartialPromotionError struct {
	StudentID string
	FromBelt  string
	ToBelt    string
	Err       error
}

func (e *PartialPromotionError) Error() string {
	return fmt.Sprintf(
		"belt advanced to %s but recording the promotion in history failed: %v",
		e.ToBelt, e.Err,
	)
}

func (e *PartialPromotionError) Unwrap() error { return e.Err }

type (
	Repository interface {
		// GetProgress looks a record up by its (student, program) key.
		GetProgress(ctx context.Context, studentID, program string) (Progress, error)
		QueryProgress(ctx context.Context, studentID string) ([]Progress, error)
		// SaveProgress inserts or, on a (student_id, program) conflict, updates.
		SaveProgress(ctx context.Context, p Progress) (Progress, error)
		// AppendEntry writes an immutable promotion-history record.
		AppendEntry(ctx context.Context, e Entry) (Entry, error)
		QueryEntries(ctx context.Context, studentID string, ordering []core.DBOrdering) ([]Entry, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Get(ctx context.Context, studentID, program string) (Progress, error) {
	return svc.repo.GetProgress(ctx, studentID, program)
}

func (svc *Service) QueryByStudent(ctx context.Context, studentID string) ([]Progress, error) {
	return svc.repo.QueryProgress(ctx, studentID)
}

func (svc *Service) History(ctx context.Context, studentID string) ([]Entry, error) {
	return svc.repo.QueryEntries(ctx, studentID, []core.DBOrdering{{Field: "promoted_at", Ascending: false}})
}

// AdjustStripes applies a saturating stripe delta for a stripe discipline.
func (svc *Service) AdjustStripes(ctx context.Context, studentID, program string, delta int) (Progress, error) {
	cfg := discipline.Get(program)
	if cfg == nil {
		return Progress{}, core.NewValidationError(errors.New(errUnknownProgram),
			core.FieldError{Field: "program", Error: errUnknownProgram})
	}
	if !cfg.HasStripes {
		return Progress{}, core.NewValidationError(errors.New(errNoStripes),
			core.FieldError{Field: "program", Error: errNoStripes})
	}

	p, err := svc.repo.GetProgress(ctx, studentID, program)
	if err != nil {
		return Progress{}, err
	}

	maxStripes := cfg.MaxStripes
	if maxStripes <= 0 {
		maxStripes = discipline.DefaultMaxStripes
	}
	p.StripeCount = AdjustStripes(p.StripeCount, delta, maxStripes)
	p.UpdatedAt = time.Now().UTC()
	return svc.repo.SaveProgress(ctx, p)
}

// SetStatus moves the cycle status; any state may move to any other.
func (svc *Service) SetStatus(ctx context.Context, studentID, program string, status Status) (Progress, error) {
	p, err := svc.repo.GetProgress(ctx, studentID, program)
	if err != nil {
		return Progress{}, err
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	return svc.repo.SaveProgress(ctx, p)
}

// Promote performs the promotion as one logical unit: the progress record moves
// to the target belt with stripes reset and the cycle restarted, then a history
// entry is appended with the prior belt (empty on a first promotion).
//
// The two writes are not transactional across record types. If the history
// append fails after the progress write succeeded, the returned error is a
// *PartialPromotionError: recoverable, never swallowed.
func (svc *Service) Promote(ctx context.Context, pr Promotion) (Progress, Entry, error) {
	cfg := discipline.Get(pr.Program)
	if cfg == nil {
		return Progress{}, Entry{}, core.NewValidationError(errors.New(errUnknownProgram),
			core.FieldError{Field: "program", Error: errUnknownProgram})
	}
	if cfg.RankIndex(pr.ToBelt) < 0 {
		return Progress{}, Entry{}, core.NewValidationError(errors.New(errUnknownRank),
			core.FieldError{Field: "to_belt", Error: errUnknownRank})
	}

	now := time.Now().UTC()

	var fromBelt string
	p, err := svc.repo.GetProgress(ctx, pr.StudentID, pr.Program)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return Progress{}, Entry{}, errors.Wrap(err, "finding progress record")
		}
		// first-ever promotion on this track
		p = Progress{
			StudentID: pr.StudentID,
			Program:   pr.Program,
			CreatedAt: now,
		}
	} else {
		fromBelt = p.Belt
	}

	status := pr.Status
	if status == "" {
		status = StatusNeedsWork
	}

	p.Belt = pr.ToBelt
	p.StripeCount = 0
	p.Status = status
	p.UpdatedAt = now

	p, err = svc.repo.SaveProgress(ctx, p)
	if err != nil {
		return Progress{}, Entry{}, errors.Wrap(err, "updating progress record")
	}

	entry := Entry{
		StudentID:  pr.StudentID,
		FromBelt:   fromBelt,
		ToBelt:     pr.ToBelt,
		Notes:      pr.Notes,
		PromotedAt: now,
	}
	entry, err = svc.repo.AppendEntry(ctx, entry)
	if err != nil {
		// the belt has advanced; the audit trail is missing this event
		return p, Entry{}, &PartialPromotionError{
			StudentID: pr.StudentID,
			FromBelt:  fromBelt,
			ToBelt:    pr.ToBelt,
			Err:       err,
		}
	}
	return p, entry, nil
}
