package progress

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Status tracks where a student stands in the current promotion cycle.
// The transition graph is deliberately permissive: any status may move to any
// other via explicit admin action.
type Status string

const (
	StatusNeedsWork Status = "needs_work"
	StatusReady     Status = "ready"
	StatusPassed    Status = "passed"
	StatusDeferred  Status = "deferred"
)

// Progress is one record per (student, discipline track).
type Progress struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	Program   string `json:"program"`

	Belt        string `json:"belt"` // current belt/level name
	StripeCount int    `json:"stripe_count"`
	Status      Status `json:"status"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Entry is one append-only promotion-history record. Entries are never mutated
// or deleted: they are the audit trail for progression.
type Entry struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`

	FromBelt string `json:"from_belt,omitempty"` // empty on the first-ever promotion
	ToBelt   string `json:"to_belt"`
	Notes    string `json:"notes,omitempty"`

	PromotedAt time.Time `json:"promoted_at"` // server-assigned, UTC
}

// AdjustStripes applies a saturating delta: the result is clamped to
// [0, maxStripes] and never wraps. Hitting either bound is a no-op, not an
// error; the UI disables the triggering control at the boundary.
func AdjustStripes(current, delta, maxStripes int) int {
	n := current + delta
	if n < 0 {
		return 0
	}
	if n > maxStripes {
		return maxStripes
	}
	return n
}

// Promotion contains information needed to promote a student.
type Promotion struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
	Program   string `json:"program" validate:"required"`
	ToBelt    string `json:"to_belt" validate:"required"`
	// Status restarts the cycle after promotion; defaults to needs_work.
	Status Status `json:"status" validate:"omitempty,oneof=needs_work ready passed deferred"`
	Notes  string `json:"notes"`
}

func (p *Promotion) Validate(validate *validator.Validate) error {
	if p.Status == "" {
		p.Status = StatusNeedsWork
	}
	return validate.Struct(p)
}

// UpdateStatus sets the cycle status of a progress record.
type UpdateStatus struct {
	Status Status `json:"status" validate:"required,oneof=needs_work ready passed deferred"`
}

func (u UpdateStatus) Validate(validate *validator.Validate) error {
	return validate.Struct(u)
}
