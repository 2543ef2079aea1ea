package absence

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Status is an absence request's review state.
type Status string

const (
	// StatusProcessing marks a request awaiting review. At most one
	// PROCESSING request may exist per (user, lesson).
	StatusProcessing Status = "PROCESSING"
	StatusApproved   Status = "APPROVED"
	StatusUnapproved Status = "UNAPPROVED"
)

type Request struct {
	ID       string `json:"id"`
	LessonID string `json:"lesson_id"`
	UserID   string `json:"user_id"`
	Reason   string `json:"reason"`
	Status   Status `json:"status"`

	CreatedAt  time.Time  `json:"created_at"` // UTC
	UpdatedAt  time.Time  `json:"updated_at"` // UTC
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy string     `json:"reviewed_by,omitempty"`
}

// NewRequest contains information needed to submit an absence request.
type NewRequest struct {
	LessonID string `json:"lesson_id" validate:"required,uuid4"`
	Reason   string `json:"reason" validate:"required"`
}

func (nr *NewRequest) Validate(validate *validator.Validate) error {
	nr.Reason = core.CleanString(nr.Reason)
	return validate.Struct(nr)
}

type QueryFilter struct {
	LessonID string `query:"lesson_id"`
	UserID   string `query:"user_id"`
	Status   Status `query:"status"`
}
