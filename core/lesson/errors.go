package lesson

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound indicates the targeted lesson does not exist (or is deleted).
	ErrNotFound = errors.New("lesson not found")
)

// ConflictError reports teacher / student / classroom+subject collisions with
// structured colliding-lesson detail.
type ConflictError struct {
	Report ConflictReport
}

func NewConflictError(report ConflictReport) error {
	return &ConflictError{Report: report}
}

func (err ConflictError) Error() string {
	var parts []string
	if n := len(err.Report.Teacher); n > 0 {
		parts = append(parts, fmt.Sprintf("teacher double-booked in %d lesson(s)", n))
	}
	if n := len(err.Report.Students); n > 0 {
		parts = append(parts, fmt.Sprintf("%d student(s) double-booked", n))
	}
	if n := len(err.Report.ClassroomSubject); n > 0 {
		parts = append(parts, fmt.Sprintf("classroom already hosts this subject in %d lesson(s)", n))
	}
	if n := len(err.Report.BatchSlots); n > 0 {
		parts = append(parts, fmt.Sprintf("%d slot pair(s) within the batch overlap", n))
	}
	if len(parts) == 0 {
		return "scheduling conflict"
	}
	return "scheduling conflict: " + strings.Join(parts, "; ")
}

// ViolationTag is a stable, machine-readable mutation-policy violation code.
type ViolationTag string

const (
	ViolationOngoing       ViolationTag = "lesson_ongoing"
	ViolationStartsSoon    ViolationTag = "lesson_starts_soon"
	ViolationCompletedRole ViolationTag = "completed_requires_admin"
	ViolationStartInPast   ViolationTag = "start_in_past"
	ViolationFieldLocked   ViolationTag = "field_locked"
)

type Violation struct {
	LessonID string       `json:"lesson_id,omitempty"`
	Code     string       `json:"code,omitempty"`
	Tag      ViolationTag `json:"tag"`
	Detail   string       `json:"detail"`
}

// PolicyViolationError pools every violated mutation rule; callers see all
// reasons at once, never just the first failure.
type PolicyViolationError struct {
	Violations []Violation
}

func NewPolicyViolationError(violations []Violation) error {
	return &PolicyViolationError{Violations: violations}
}

func (err PolicyViolationError) Error() string {
	details := make([]string, 0, len(err.Violations))
	for _, v := range err.Violations {
		details = append(details, v.Detail)
	}
	return "mutation not allowed: " + strings.Join(details, "; ")
}

// SlotFailure is one slot's meeting-link provisioning failure.
type SlotFailure struct {
	Slot   TimeSlot `json:"slot"`
	Reason string   `json:"reason"`
}

// ProvisioningError reports meeting-link minting failures; any slot's failure
// fails the whole batch.
type ProvisioningError struct {
	Failures []SlotFailure
}

func NewProvisioningError(failures []SlotFailure) error {
	return &ProvisioningError{Failures: failures}
}

func (err ProvisioningError) Error() string {
	return fmt.Sprintf("minting meeting links failed for %d slot(s)", len(err.Failures))
}
