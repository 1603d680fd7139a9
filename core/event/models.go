package event

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/renshulabs/academy/core"
)

// Event is one public calendar entry (gradings, seminars, tournaments).
type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	StartsAt  time.Time `json:"starts_at"`
	Location  string    `json:"location,omitempty"`
	Body      string    `json:"body,omitempty"`
	ImagePath string    `json:"image_path,omitempty"`
	Published bool      `json:"published"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewEvent contains information needed to create an Event.
type NewEvent struct {
	Title     string    `json:"title" validate:"required"`
	StartsAt  time.Time `json:"starts_at" validate:"required"`
	Location  string    `json:"location"`
	Body      string    `json:"body"`
	ImagePath string    `json:"image_path"`
	Published bool      `json:"published"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Location = core.CleanString(ne.Location)
	return validate.Struct(ne)
}

// UpdateEvent defines what may be modified on an existing Event.
type UpdateEvent struct {
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"starts_at"`
	Location  string    `json:"location"`
	Body      string    `json:"body"`
	ImagePath string    `json:"image_path"`
	Published *bool     `json:"published"`
}

func (ue *UpdateEvent) Validate(orig Event, validate *validator.Validate) error {
	if title := core.CleanString(ue.Title); title != "" {
		ue.Title = title
	} else {
		ue.Title = orig.Title
	}
	if ue.StartsAt.IsZero() {
		ue.StartsAt = orig.StartsAt
	}
	return validate.Struct(ue)
}

var slugRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from an event title.
func Slugify(title string) string {
	slug := slugRegex.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}
