package fee

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/renshulabs/academy/core"
)

// Status is the derived classification of a fee record for its period.
// It is never authoritative on its own: it must always agree with
// Classify(MonthlyFee, PaidAmount).
type Status string

const (
	StatusUnpaid  Status = "unpaid"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
)

// Fee is one billing record per (student, month, year).
type Fee struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	Month     int    `json:"month"` // 1..12
	Year      int    `json:"year"`

	MonthlyFee float64 `json:"monthly_fee"` // amount owed for the period
	PaidAmount float64 `json:"paid_amount"` // cumulative payment for the period
	// BalanceDue carries the shortfall from prior unpaid periods plus the
	// current period's own shortfall.
	BalanceDue float64 `json:"balance_due"`
	Status     Status  `json:"status"`

	ReceiptPath string `json:"receipt_path,omitempty"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Classify derives the record's period status.
func (f Fee) Classify() Status { return Classify(f.MonthlyFee, f.PaidAmount) }

// NewFee contains information needed to create or update a Fee record.
// Upserts resolve on the (student_id, month, year) composite key.
type NewFee struct {
	StudentID    string  `json:"student_id" validate:"required,uuid4"`
	Month        int     `json:"month" validate:"required,gte=1,lte=12"`
	Year         int     `json:"year" validate:"required,gte=2000,lte=2100"`
	MonthlyFee   float64 `json:"monthly_fee" validate:"gte=0"`
	PaidAmount   float64 `json:"paid_amount" validate:"gte=0"`
	CarryForward float64 `json:"carry_forward" validate:"gte=0"`
	ReceiptPath  string  `json:"receipt_path,omitempty"`
}

const errOverpaid = "paid amount cannot exceed the amount owed including carry-forward"

// Validate applies field validation plus the overpayment precondition:
// PaidAmount must not exceed MonthlyFee + CarryForward. An overpaid record is a
// validation error to be surfaced before persisting, never silently clamped.
func (nf *NewFee) Validate(validate *validator.Validate) error {
	if err := validate.Struct(nf); err != nil {
		return err
	}
	if nf.PaidAmount > nf.MonthlyFee+nf.CarryForward {
		return core.NewValidationError(
			errors.New(errOverpaid),
			core.FieldError{Field: "paid_amount", Error: errOverpaid},
		)
	}
	return nil
}

type QueryFilter struct {
	StudentID string `query:"student_id"`
	Month     int    `query:"month"`
	Year      int    `query:"year"`
	Status    Status `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.Month == 0 && qf.Year == 0 && qf.Status == ""
}
