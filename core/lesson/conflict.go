package lesson

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// Resources is the resource tuple a candidate time slot competes for.
type Resources struct {
	ClassroomID string
	SubjectID   string // empty disables the classroom+subject duplicate check
	TeacherID   string
	StudentIDs  []string
}

type (
	// StudentConflict lists the lessons a double-booked student already attends.
	StudentConflict struct {
		StudentID string `json:"student_id"`
		Lessons   []Ref  `json:"lessons"`
	}

	// SlotClash marks two slots of the same batch colliding with each other.
	SlotClash struct {
		First  TimeSlot `json:"first"`
		Second TimeSlot `json:"second"`
	}

	// ConflictReport classifies collisions into independent conflict classes so
	// callers can build actionable error detail rather than a bare boolean.
	ConflictReport struct {
		Teacher          []Ref             `json:"teacher,omitempty"`
		Students         []StudentConflict `json:"students,omitempty"`
		ClassroomSubject []Ref             `json:"classroom_subject,omitempty"`
		BatchSlots       []SlotClash       `json:"batch_slots,omitempty"`
	}
)

func (r *ConflictReport) IsEmpty() bool {
	return len(r.Teacher) == 0 && len(r.Students) == 0 &&
		len(r.ClassroomSubject) == 0 && len(r.BatchSlots) == 0
}

func (r *ConflictReport) merge(other ConflictReport) {
	r.Teacher = appendRefs(r.Teacher, other.Teacher)
	r.ClassroomSubject = appendRefs(r.ClassroomSubject, other.ClassroomSubject)
	r.BatchSlots = append(r.BatchSlots, other.BatchSlots...)
	for _, sc := range other.Students {
		r.addStudentConflicts(sc.StudentID, sc.Lessons)
	}
}

func (r *ConflictReport) addStudentConflicts(studentID string, refs []Ref) {
	for i := range r.Students {
		if r.Students[i].StudentID == studentID {
			r.Students[i].Lessons = appendRefs(r.Students[i].Lessons, refs)
			return
		}
	}
	r.Students = append(r.Students, StudentConflict{StudentID: studentID, Lessons: refs})
}

func appendRefs(refs, more []Ref) []Ref {
	for _, ref := range more {
		var seen bool
		for _, have := range refs {
			if have.ID == ref.ID {
				seen = true
				break
			}
		}
		if !seen {
			refs = append(refs, ref)
		}
	}
	return refs
}

// Overlaps reports whether two time windows collide. Touching boundaries do
// not conflict: a lesson ending at 10:00 leaves the room free for one starting
// at 10:00. The same rule applies at create and update time.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && endA.After(startB)
}

// classifyConflicts checks one candidate slot against already-persisted lessons
// and classifies every collision. Candidates are assumed to overlap the slot's
// window already (the store query guarantees it); classification is purely
// about the resource tuple.
func classifyConflicts(candidates []Lesson, res Resources) ConflictReport {
	var report ConflictReport
	for i := range candidates {
		other := &candidates[i]

		if other.TeacherID == res.TeacherID {
			report.Teacher = appendRefs(report.Teacher, []Ref{other.Ref()})
		}

		for _, sid := range res.StudentIDs {
			for _, otherSid := range other.StudentIDs {
				if sid == otherSid {
					report.addStudentConflicts(sid, []Ref{other.Ref()})
					break
				}
			}
		}

		// skipped entirely when the candidate has no subject
		if res.SubjectID != "" && other.ClassroomID == res.ClassroomID && other.SubjectID == res.SubjectID {
			report.ClassroomSubject = appendRefs(report.ClassroomSubject, []Ref{other.Ref()})
		}
	}
	return report
}

// batchSlotClashes finds slots of the same batch colliding with each other.
// All slots of a batch share one resource tuple, so any window overlap is a clash.
func batchSlotClashes(slots []TimeSlot) ([]SlotClash, error) {
	var clashes []SlotClash
	for i := 0; i < len(slots); i++ {
		startA, endA, err := slots[i].Window()
		if err != nil {
			return nil, errors.Wrapf(err, "slot %d", i)
		}
		for j := i + 1; j < len(slots); j++ {
			startB, endB, err := slots[j].Window()
			if err != nil {
				return nil, errors.Wrapf(err, "slot %d", j)
			}
			if Overlaps(startA, endA, startB, endB) {
				clashes = append(clashes, SlotClash{First: slots[i], Second: slots[j]})
			}
		}
	}
	return clashes, nil
}

// detectConflicts runs the full detection across all candidate slots: each
// slot against committed lessons and, for batches, the slots against each
// other. excludeID leaves a lesson out of the search when updating it.
func (svc *service) detectConflicts(
	ctx context.Context,
	slots []TimeSlot,
	res Resources,
	excludeID string,
	exec ...core.DBExecutor,
) (ConflictReport, error) {
	var report ConflictReport

	for i, slot := range slots {
		candidates, err := svc.repo.QueryOverlapping(ctx, slot.Date, slot.StartTime, slot.EndTime, excludeID, exec...)
		if err != nil {
			return report, errors.Wrapf(err, "querying overlapping lessons for slot %d", i)
		}
		report.merge(classifyConflicts(candidates, res))
	}

	if len(slots) > 1 {
		clashes, err := batchSlotClashes(slots)
		if err != nil {
			return report, err
		}
		report.BatchSlots = clashes
	}
	return report, nil
}
