package lesson

import (
	"fmt"
	"time"

	"github.com/trezcool/darasa/core/user"
)

// guardUpdate decides whether a patch may be applied to lsn right now.
// updated is lsn with the patch already applied, so the resulting start
// instant can be checked. Violations are collected, not short-circuited.
func guardUpdate(lsn, updated Lesson, patch *UpdateLesson, now time.Time, leadTime time.Duration) []Violation {
	var violations []Violation

	// inside the lead time window only attachment-class fields may change
	if now.Add(leadTime).After(lsn.StartsAt()) {
		if locked := patch.restrictedFields(); len(locked) > 0 {
			violations = append(violations, Violation{
				LessonID: lsn.ID,
				Code:     lsn.Code,
				Tag:      ViolationFieldLocked,
				Detail: fmt.Sprintf(
					"lesson starts in less than %s; only documents/recordings may change (got: %v)",
					leadTime, locked),
			})
		}
	}

	// the (resulting or unchanged) start instant must not be in the past;
	// an attachments-only patch is exempt so documents/recordings can still
	// land on a completed lesson
	if len(patch.restrictedFields()) > 0 && updated.StartsAt().Before(now) {
		violations = append(violations, Violation{
			LessonID: lsn.ID,
			Code:     lsn.Code,
			Tag:      ViolationStartInPast,
			Detail:   "lesson start would fall in the past",
		})
	}
	return violations
}

// guardDelete decides whether every targeted lesson may be deleted right now.
// Violations across the batch are pooled; a single slice holding every broken
// rule comes back, so the caller can reject all-or-nothing with full detail.
func guardDelete(lessons []Lesson, actor user.User, now time.Time, leadTime time.Duration) []Violation {
	var violations []Violation
	for i := range lessons {
		lsn := &lessons[i]

		switch lsn.DeriveStatus(now) {
		case StatusOngoing:
			violations = append(violations, Violation{
				LessonID: lsn.ID,
				Code:     lsn.Code,
				Tag:      ViolationOngoing,
				Detail:   "an ongoing lesson cannot be deleted",
			})
		case StatusCompleted:
			if !actor.IsAdmin() {
				violations = append(violations, Violation{
					LessonID: lsn.ID,
					Code:     lsn.Code,
					Tag:      ViolationCompletedRole,
					Detail:   "only an admin may delete a completed lesson",
				})
			}
		case StatusUpcoming:
			if now.Add(leadTime).After(lsn.StartsAt()) {
				violations = append(violations, Violation{
					LessonID: lsn.ID,
					Code:     lsn.Code,
					Tag:      ViolationStartsSoon,
					Detail:   fmt.Sprintf("lesson starts in less than %s", leadTime),
				})
			}
		}
	}
	return violations
}
