package fee_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/renshulabs/academy/core"
	"github.com/renshulabs/academy/core/fee"
	emailsvc "github.com/renshulabs/academy/services/email"
	"github.com/renshulabs/academy/storage/cache"
	dummydb "github.com/renshulabs/academy/storage/database/dummy"
)

func setup(t *testing.T) (*fee.Service, *core.Config) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	conf := &core.Config{
		AppName: "Renshu",
		Redis:   core.RedisConfig{CacheTTL: time.Minute},
	}
	svc := fee.NewService(dummydb.NewFeeRepository(db), cache.NewMemory(), emailsvc.NewConsoleServiceMock(conf), conf)
	return svc, conf
}

func TestService_Upsert(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	studentID := uuid.New().String()

	f, err := svc.Upsert(ctx, fee.NewFee{
		StudentID:  studentID,
		Month:      3,
		Year:       2024,
		MonthlyFee: 1000,
		PaidAmount: 400,
	})
	assert.NoError(t, err)
	assert.Equal(t, 600.0, f.BalanceDue)
	assert.Equal(t, fee.StatusPartial, f.Status)

	// a second write for the same period replaces, not duplicates
	f, err = svc.Upsert(ctx, fee.NewFee{
		StudentID:  studentID,
		Month:      3,
		Year:       2024,
		MonthlyFee: 1000,
		PaidAmount: 1000,
	})
	assert.NoError(t, err)
	assert.Equal(t, 0.0, f.BalanceDue)
	assert.Equal(t, fee.StatusPaid, f.Status)

	fees, err := svc.Query(ctx, &fee.QueryFilter{StudentID: studentID}, nil)
	assert.NoError(t, err)
	assert.Len(t, fees, 1)
}

func TestService_CarryForward(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	studentID := uuid.New().String()

	// no previous record
	carry, err := svc.CarryForward(ctx, studentID, 1, 2024)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, carry)

	// December 2023 left a shortfall; January 2024 picks it up across the year
	// boundary
	_, err = svc.Upsert(ctx, fee.NewFee{
		StudentID:  studentID,
		Month:      12,
		Year:       2023,
		MonthlyFee: 1000,
		PaidAmount: 800,
	})
	assert.NoError(t, err)

	carry, err = svc.CarryForward(ctx, studentID, 1, 2024)
	assert.NoError(t, err)
	assert.Equal(t, 200.0, carry)

	// a fully paid previous period carries nothing
	_, err = svc.Upsert(ctx, fee.NewFee{
		StudentID:  studentID,
		Month:      12,
		Year:       2023,
		MonthlyFee: 1000,
		PaidAmount: 1000,
	})
	assert.NoError(t, err)

	carry, err = svc.CarryForward(ctx, studentID, 1, 2024)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, carry)
}

func TestService_Summary_cacheInvalidation(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	studentID := uuid.New().String()

	_, err := svc.Upsert(ctx, fee.NewFee{
		StudentID:  studentID,
		Month:      5,
		Year:       2024,
		MonthlyFee: 1000,
		PaidAmount: 0,
	})
	assert.NoError(t, err)

	s, err := svc.Summary(ctx, &fee.QueryFilter{StudentID: studentID})
	assert.NoError(t, err)
	assert.Equal(t, 1000.0, s.OverdueAmount)
	assert.Equal(t, 1, s.OverdueCount)

	// the write drops the cached summary synchronously: a follow-up read never
	// sees the stale totals
	_, err = svc.Upsert(ctx, fee.NewFee{
		StudentID:  studentID,
		Month:      5,
		Year:       2024,
		MonthlyFee: 1000,
		PaidAmount: 1000,
	})
	assert.NoError(t, err)

	s, err = svc.Summary(ctx, &fee.QueryFilter{StudentID: studentID})
	assert.NoError(t, err)
	assert.Equal(t, 0.0, s.OverdueAmount)
	assert.Equal(t, 1, s.PaidCount)
}

func TestNewFee_Validate(t *testing.T) {
	validate := validator.New()
	studentID := uuid.New().String()

	nf := fee.NewFee{
		StudentID:    studentID,
		Month:        4,
		Year:         2024,
		MonthlyFee:   1000,
		PaidAmount:   1500,
		CarryForward: 200,
	}

	// overpayment beyond owed + carry-forward is rejected, never clamped
	err := nf.Validate(validate)
	vErr, ok := err.(*core.ValidationError)
	if assert.True(t, ok, "expected *core.ValidationError, got %T", err) {
		assert.Equal(t, "paid_amount", vErr.Fields[0].Field)
	}

	// exactly owed + carry-forward is fine
	nf.PaidAmount = 1200
	assert.NoError(t, nf.Validate(validate))
}
