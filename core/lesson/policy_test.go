package lesson

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core/user"
)

const testLeadTime = 2 * time.Hour

func scheduledLesson(id string, start time.Time, dur time.Duration) Lesson {
	end := start.Add(dur)
	return Lesson{
		ID:        id,
		Code:      "LSN2021" + id,
		Date:      time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		StartTime: start.Format("15:04"),
		EndTime:   end.Format("15:04"),
	}
}

func violationTags(violations []Violation) []ViolationTag {
	var tags []ViolationTag
	for _, v := range violations {
		tags = append(tags, v.Tag)
	}
	return tags
}

func TestGuardUpdate(t *testing.T) {
	now := time.Date(2021, 3, 15, 8, 0, 0, 0, time.UTC)
	name := "Trigonometry"
	room := "B12"
	docs := []string{"intro.pdf"}

	tests := []struct {
		name     string
		start    time.Duration // offset from now
		patch    UpdateLesson
		wantTags []ViolationTag
	}{
		{
			name:  "any field may change outside the lead time",
			start: 3 * time.Hour,
			patch: UpdateLesson{Name: &name, Room: &room},
		},
		{
			name:     "schedule fields locked inside the lead time",
			start:    time.Hour,
			patch:    UpdateLesson{Name: &name},
			wantTags: []ViolationTag{ViolationFieldLocked},
		},
		{
			name:  "attachments still allowed inside the lead time",
			start: time.Hour,
			patch: UpdateLesson{Documents: docs},
		},
		{
			name:  "attachments allowed on a completed lesson",
			start: -5 * time.Hour,
			patch: UpdateLesson{Recordings: []string{"rec.mp4"}},
		},
		{
			name:     "restricted field on a past lesson pools both violations",
			start:    -5 * time.Hour,
			patch:    UpdateLesson{Name: &name},
			wantTags: []ViolationTag{ViolationFieldLocked, ViolationStartInPast},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lsn := scheduledLesson("0001", now.Add(tt.start), time.Hour)
			updated := tt.patch.apply(lsn)
			got := guardUpdate(lsn, updated, &tt.patch, now, testLeadTime)
			assert.Equal(t, tt.wantTags, violationTags(got))
		})
	}
}

func TestGuardUpdateRescheduleIntoPast(t *testing.T) {
	now := time.Date(2021, 3, 15, 8, 0, 0, 0, time.UTC)
	lsn := scheduledLesson("0001", now.Add(4*time.Hour), time.Hour)

	early := "06:00"
	patch := UpdateLesson{StartTime: &early}
	updated := patch.apply(lsn)

	got := guardUpdate(lsn, updated, &patch, now, testLeadTime)
	assert.Equal(t, []ViolationTag{ViolationStartInPast}, violationTags(got))
}

func TestGuardDelete(t *testing.T) {
	now := time.Date(2021, 3, 15, 12, 0, 0, 0, time.UTC)
	student := user.User{ID: "u-1", Roles: []string{user.RoleStudent}}
	admin := user.User{ID: "u-2", Roles: []string{user.RoleAdmin}}

	tests := []struct {
		name     string
		lessons  []Lesson
		actor    user.User
		wantTags []ViolationTag
	}{
		{
			name:    "upcoming outside the lead time",
			lessons: []Lesson{scheduledLesson("0001", now.Add(3*time.Hour), time.Hour)},
			actor:   student,
		},
		{
			name:     "upcoming inside the lead time",
			lessons:  []Lesson{scheduledLesson("0001", now.Add(time.Hour), time.Hour)},
			actor:    student,
			wantTags: []ViolationTag{ViolationStartsSoon},
		},
		{
			name:     "ongoing is never deletable",
			lessons:  []Lesson{scheduledLesson("0001", now.Add(-30*time.Minute), time.Hour)},
			actor:    admin,
			wantTags: []ViolationTag{ViolationOngoing},
		},
		{
			name:     "completed needs an admin",
			lessons:  []Lesson{scheduledLesson("0001", now.Add(-3*time.Hour), time.Hour)},
			actor:    student,
			wantTags: []ViolationTag{ViolationCompletedRole},
		},
		{
			name:    "completed deletable by an admin",
			lessons: []Lesson{scheduledLesson("0001", now.Add(-3*time.Hour), time.Hour)},
			actor:   admin,
		},
		{
			name: "batch pools every violation",
			lessons: []Lesson{
				scheduledLesson("0001", now.Add(3*time.Hour), time.Hour),
				scheduledLesson("0002", now.Add(-30*time.Minute), time.Hour),
				scheduledLesson("0003", now.Add(time.Hour), time.Hour),
				scheduledLesson("0004", now.Add(-3*time.Hour), time.Hour),
			},
			actor:    student,
			wantTags: []ViolationTag{ViolationOngoing, ViolationStartsSoon, ViolationCompletedRole},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := guardDelete(tt.lessons, tt.actor, now, testLeadTime)
			assert.Equal(t, tt.wantTags, violationTags(got))
		})
	}
}
