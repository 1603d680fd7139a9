package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/renshulabs/academy/core"
)

type Student struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	NationalID string `json:"national_id"` // unique, 12 digits
	// Program is free text; it is matched case-insensitively against the
	// discipline registry when progression is displayed.
	Program       string    `json:"program"`
	JoinedOn      time.Time `json:"joined_on"`
	GuardianName  string    `json:"guardian_name,omitempty"`
	GuardianPhone string    `json:"guardian_phone,omitempty"`
	AvatarPath    string    `json:"avatar_path,omitempty"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	Name          string    `json:"name" validate:"required"`
	NationalID    string    `json:"national_id" validate:"required,natid"`
	Program       string    `json:"program" validate:"required"`
	JoinedOn      time.Time `json:"joined_on" validate:"required"`
	GuardianName  string    `json:"guardian_name"`
	GuardianPhone string    `json:"guardian_phone"`
	AvatarPath    string    `json:"avatar_path"`
}

func (ns *NewStudent) Validate(validate *validator.Validate, svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.NationalID = core.CleanString(ns.NationalID)
	ns.Program = core.CleanString(ns.Program)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckNationalIDUniqueness(ns.NationalID)
}

// UpdateStudent defines what information may be provided to modify an existing
// Student. Empty fields keep the original values.
type UpdateStudent struct {
	Name          string    `json:"name"`
	NationalID    string    `json:"national_id" validate:"omitempty,natid"`
	Program       string    `json:"program"`
	JoinedOn      time.Time `json:"joined_on"`
	GuardianName  string    `json:"guardian_name"`
	GuardianPhone string    `json:"guardian_phone"`
	AvatarPath    string    `json:"avatar_path"`
}

func (us *UpdateStudent) Validate(orig Student, validate *validator.Validate, svc *Service) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if natID := core.CleanString(us.NationalID); natID != "" {
		us.NationalID = natID
	} else {
		us.NationalID = orig.NationalID
	}
	if program := core.CleanString(us.Program); program != "" {
		us.Program = program
	} else {
		us.Program = orig.Program
	}
	if us.JoinedOn.IsZero() {
		us.JoinedOn = orig.JoinedOn
	}

	if err := validate.Struct(us); err != nil {
		return err
	}
	return svc.CheckNationalIDUniqueness(us.NationalID, orig)
}

type QueryFilter struct {
	Search     string    `query:"search"` // matches name or national ID
	Program    string    `query:"program"`
	JoinedFrom time.Time `query:"joined_from"`
	JoinedTo   time.Time `query:"joined_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Program == "" && qf.JoinedFrom.IsZero() && qf.JoinedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Program = core.CleanString(qf.Program)
}
