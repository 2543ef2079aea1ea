package timekeeping

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Record marks whether a user attended a lesson. At most one record exists
// per (user, lesson); re-submission overwrites the previous value.
type Record struct {
	ID         string    `json:"id"`
	LessonID   string    `json:"lesson_id"`
	UserID     string    `json:"user_id"`
	IsAttended bool      `json:"is_attended"`
	RecordedAt time.Time `json:"recorded_at"` // UTC
	RecordedBy string    `json:"recorded_by"`
}

// NewRecord contains information needed to record one user's attendance.
type NewRecord struct {
	LessonID   string `json:"lesson_id" validate:"required,uuid4"`
	UserID     string `json:"user_id" validate:"required,uuid4"`
	IsAttended bool   `json:"is_attended"`
}

func (nr *NewRecord) Validate(validate *validator.Validate) error {
	return validate.Struct(nr)
}

// NewBulkRecord records attendance for a lesson's whole roster at once.
type NewBulkRecord struct {
	LessonID string      `json:"lesson_id" validate:"required,uuid4"`
	Entries  []BulkEntry `json:"entries" validate:"required,min=1,dive"`
}

type BulkEntry struct {
	UserID     string `json:"user_id" validate:"required,uuid4"`
	IsAttended bool   `json:"is_attended"`
}

func (nb *NewBulkRecord) Validate(validate *validator.Validate) error {
	return validate.Struct(nb)
}

type QueryFilter struct {
	LessonID string `query:"lesson_id"`
	UserID   string `query:"user_id"`
}
