package lesson

import "time"

// Status is a lesson's lifecycle status relative to the current instant.
// It is always derived from the lesson's time window and never persisted,
// so it can never drift from the wall clock.
type Status string

const (
	StatusUpcoming  Status = "UPCOMING"
	StatusOngoing   Status = "ONGOING"
	StatusCompleted Status = "COMPLETED"
)

// DeriveStatus maps a lesson's time window and the current instant to a
// lifecycle status. The start boundary belongs to ONGOING, the end boundary
// to COMPLETED.
func DeriveStatus(start, end, now time.Time) Status {
	if !now.Before(end) {
		return StatusCompleted
	}
	if !now.Before(start) {
		return StatusOngoing
	}
	return StatusUpcoming
}

// DeriveStatus derives the lesson's status at the given instant.
func (l *Lesson) DeriveStatus(now time.Time) Status {
	return DeriveStatus(l.StartsAt(), l.EndsAt(), now)
}
