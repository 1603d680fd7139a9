package fee

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/renshulabs/academy/core"
)

var (
	// errors
	ErrNotFound = errors.New("fee record not found")
)

const cacheKeyPrefix = "fees:summary:"

type (
	Repository interface {
		// GetFee looks a record up by its (student, month, year) composite key.
		GetFee(ctx context.Context, studentID string, month, year int) (Fee, error)
		QueryFees(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Fee, error)
		// UpsertFee inserts or, on a (student_id, month, year) conflict, updates.
		UpsertFee(ctx context.Context, f Fee) (Fee, error)
		DeleteFeesByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo     Repository
		cache    core.Cache
		mailSvc  core.EmailService
		cacheTTL time.Duration
	}
)

func NewService(repo Repository, cache core.Cache, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		mailSvc:  mailSvc,
		cacheTTL: conf.Redis.CacheTTL,
	}
}

// Upsert validates the input, derives balance and status, and writes the record
// resolving conflicts on the composite key. The affected summary cache entries
// are dropped synchronously so a follow-up read within the same action never
// sees the stale pre-write totals.
func (svc *Service) Upsert(ctx context.Context, nf NewFee) (Fee, error) {
	now := time.Now().UTC()
	f := Fee{
		StudentID:   nf.StudentID,
		Month:       nf.Month,
		Year:        nf.Year,
		MonthlyFee:  nf.MonthlyFee,
		PaidAmount:  nf.PaidAmount,
		BalanceDue:  ComputeBalance(nf.MonthlyFee, nf.CarryForward, nf.PaidAmount),
		Status:      Classify(nf.MonthlyFee, nf.PaidAmount),
		ReceiptPath: nf.ReceiptPath,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f, err := svc.repo.UpsertFee(ctx, f)
	if err != nil {
		return Fee{}, err
	}
	svc.InvalidateSummaries(ctx)
	return f, nil
}

func (svc *Service) Get(ctx context.Context, studentID string, month, year int) (Fee, error) {
	return svc.repo.GetFee(ctx, studentID, month, year)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Fee, error) {
	return svc.repo.QueryFees(ctx, filter, ordering)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	if err := svc.repo.DeleteFeesByID(ctx, ids...); err != nil {
		return err
	}
	svc.InvalidateSummaries(ctx)
	return nil
}

// CarryForward resolves the carry-forward amount to prefill when opening a new
// period for a student: the previous calendar month's balance_due when that
// record exists and is not fully paid, 0 otherwise.
func (svc *Service) CarryForward(ctx context.Context, studentID string, month, year int) (float64, error) {
	prevMonth, prevYear := PreviousPeriod(month, year)
	prev, err := svc.repo.GetFee(ctx, studentID, prevMonth, prevYear)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return 0, nil
		}
		return 0, errors.Wrap(err, "finding previous period fee")
	}
	return CarryForward(&prev), nil
}

// Summary aggregates fees matching the filter, read-through cached per filter
// for the configured TTL.
func (svc *Service) Summary(ctx context.Context, filter *QueryFilter) (Summary, error) {
	key := svc.summaryKey(filter)

	if svc.cache != nil {
		if data, err := svc.cache.Get(ctx, key); err == nil {
			var s Summary
			if err = json.Unmarshal(data, &s); err == nil {
				return s, nil
			}
		}
	}

	fees, err := svc.repo.QueryFees(ctx, filter, nil)
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying fees for summary")
	}
	s := Summarize(fees)

	if svc.cache != nil {
		if data, err := json.Marshal(s); err == nil {
			_ = svc.cache.Set(ctx, key, data, svc.cacheTTL)
		}
	}
	return s, nil
}

// InvalidateSummaries drops all cached fee summaries. Called on writes and on
// realtime change notifications for the fees table; consumers refetch.
func (svc *Service) InvalidateSummaries(ctx context.Context) {
	if svc.cache != nil {
		_ = svc.cache.DeletePrefix(ctx, cacheKeyPrefix)
	}
}

func (svc *Service) summaryKey(filter *QueryFilter) string {
	if filter == nil {
		filter = &QueryFilter{}
	}
	return fmt.Sprintf("%s%s:%d:%d:%s", cacheKeyPrefix, filter.StudentID, filter.Month, filter.Year, filter.Status)
}

// SendOverdueDigest emails the period's outstanding-balance totals to the given
// recipients. Sending is fire-and-forget via the email service.
func (svc *Service) SendOverdueDigest(ctx context.Context, month, year int, to []mail.Address) error {
	s, err := svc.Summary(ctx, &QueryFilter{Month: month, Year: year})
	if err != nil {
		return errors.Wrap(err, "summarizing period fees")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      to,
		Subject: fmt.Sprintf("Fee summary for %02d/%d", month, year),
		BodyStr: fmt.Sprintf(
			"Collected: %.2f (%d records)\nPartial payments: %.2f (%d records)\nOutstanding: %.2f (%d records)\n",
			s.PaidAmount, s.PaidCount, s.PartialAmount, s.PartialCount, s.OverdueAmount, s.OverdueCount,
		),
	})
	return nil
}
