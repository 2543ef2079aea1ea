package lesson

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	day := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	tests := []struct {
		name                           string
		startA, endA, startB, endB     time.Time
		want                           bool
	}{
		{"disjoint", at(9, 0), at(10, 0), at(11, 0), at(12, 0), false},
		{"partial overlap", at(9, 0), at(10, 0), at(9, 30), at(10, 30), true},
		{"contained", at(9, 0), at(12, 0), at(10, 0), at(11, 0), true},
		{"identical", at(9, 0), at(10, 0), at(9, 0), at(10, 0), true},
		{"touching end-to-start", at(9, 0), at(10, 0), at(10, 0), at(11, 0), false},
		{"touching start-to-end", at(10, 0), at(11, 0), at(9, 0), at(10, 0), false},
		{"one minute in", at(9, 0), at(10, 1), at(10, 0), at(11, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(tt.startA, tt.endA, tt.startB, tt.endB)
			assert.Equal(t, tt.want, got)
			// symmetric in its window arguments
			assert.Equal(t, got, Overlaps(tt.startB, tt.endB, tt.startA, tt.endA))
		})
	}
}

func TestClassifyConflicts(t *testing.T) {
	ref := func(id string) Lesson {
		return Lesson{ID: id, Code: "LSN2021000" + id, Name: "Algebra " + id}
	}

	res := Resources{
		ClassroomID: "room-1",
		SubjectID:   "math",
		TeacherID:   "t-1",
		StudentIDs:  []string{"s-1", "s-2"},
	}

	t.Run("no shared resources", func(t *testing.T) {
		other := ref("1")
		other.TeacherID = "t-9"
		other.ClassroomID = "room-9"
		other.SubjectID = "math"
		other.StudentIDs = []string{"s-9"}

		report := classifyConflicts([]Lesson{other}, res)
		assert.True(t, report.IsEmpty())
	})

	t.Run("teacher double-booked", func(t *testing.T) {
		other := ref("1")
		other.TeacherID = "t-1"

		report := classifyConflicts([]Lesson{other}, res)
		assert.Len(t, report.Teacher, 1)
		assert.Equal(t, other.ID, report.Teacher[0].ID)
		assert.Empty(t, report.Students)
		assert.Empty(t, report.ClassroomSubject)
	})

	t.Run("students double-booked are grouped per student", func(t *testing.T) {
		first := ref("1")
		first.TeacherID = "t-8"
		first.StudentIDs = []string{"s-1"}
		second := ref("2")
		second.TeacherID = "t-9"
		second.StudentIDs = []string{"s-1", "s-2"}

		report := classifyConflicts([]Lesson{first, second}, res)
		assert.Len(t, report.Students, 2)
		assert.Equal(t, "s-1", report.Students[0].StudentID)
		assert.Len(t, report.Students[0].Lessons, 2)
		assert.Equal(t, "s-2", report.Students[1].StudentID)
		assert.Len(t, report.Students[1].Lessons, 1)
	})

	t.Run("same classroom and subject", func(t *testing.T) {
		other := ref("1")
		other.TeacherID = "t-9"
		other.ClassroomID = "room-1"
		other.SubjectID = "math"

		report := classifyConflicts([]Lesson{other}, res)
		assert.Len(t, report.ClassroomSubject, 1)
	})

	t.Run("classroom+subject check skipped without subject", func(t *testing.T) {
		other := ref("1")
		other.TeacherID = "t-9"
		other.ClassroomID = "room-1"
		other.SubjectID = "math"

		noSubject := res
		noSubject.SubjectID = ""
		report := classifyConflicts([]Lesson{other}, noSubject)
		assert.True(t, report.IsEmpty())
	})

	t.Run("one candidate can land in several classes", func(t *testing.T) {
		other := ref("1")
		other.TeacherID = "t-1"
		other.ClassroomID = "room-1"
		other.SubjectID = "math"
		other.StudentIDs = []string{"s-2"}

		report := classifyConflicts([]Lesson{other}, res)
		assert.Len(t, report.Teacher, 1)
		assert.Len(t, report.Students, 1)
		assert.Len(t, report.ClassroomSubject, 1)
	})
}

func TestBatchSlotClashes(t *testing.T) {
	day := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)
	slot := func(start, end string) TimeSlot {
		return TimeSlot{Date: day, StartTime: start, EndTime: end}
	}

	t.Run("disjoint and touching slots pass", func(t *testing.T) {
		clashes, err := batchSlotClashes([]TimeSlot{
			slot("09:00", "10:00"),
			slot("10:00", "11:00"),
			slot("14:00", "15:00"),
		})
		assert.NoError(t, err)
		assert.Empty(t, clashes)
	})

	t.Run("overlapping slots clash", func(t *testing.T) {
		clashes, err := batchSlotClashes([]TimeSlot{
			slot("09:00", "10:30"),
			slot("10:00", "11:00"),
		})
		assert.NoError(t, err)
		assert.Len(t, clashes, 1)
	})

	t.Run("every colliding pair is reported", func(t *testing.T) {
		clashes, err := batchSlotClashes([]TimeSlot{
			slot("09:00", "12:00"),
			slot("09:30", "10:30"),
			slot("11:00", "11:30"),
		})
		assert.NoError(t, err)
		assert.Len(t, clashes, 2)
	})
}
