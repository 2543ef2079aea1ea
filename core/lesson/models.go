package lesson

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// timeOfDayLayout is the wall-clock format of Lesson.StartTime / Lesson.EndTime.
const timeOfDayLayout = "15:04"

// CombineDateTime combines a calendar date with a "HH:MM" time of day into a
// single UTC instant.
func CombineDateTime(date time.Time, timeOfDay string) (time.Time, error) {
	t, err := time.Parse(timeOfDayLayout, timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

type Lesson struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	ClassroomID string   `json:"classroom_id"`
	CourseID    string   `json:"course_id"`
	SubjectID   string   `json:"subject_id,omitempty"`
	TeacherID   string   `json:"teacher_id"`
	StudentIDs  []string `json:"student_ids"`

	Date      time.Time `json:"date"`       // UTC midnight
	StartTime string    `json:"start_time"` // "HH:MM"
	EndTime   string    `json:"end_time"`   // "HH:MM"; same day, after StartTime

	Room       string   `json:"room,omitempty"`
	MeetingURL string   `json:"meeting_url,omitempty"`
	SyllabusID string   `json:"syllabus_id,omitempty"`
	LectureIDs []string `json:"lecture_ids,omitempty"`
	Documents  []string `json:"documents,omitempty"`
	Recordings []string `json:"recordings,omitempty"`

	// Status is derived from the current instant on every read; it is never persisted.
	Status Status `json:"status,omitempty"`

	CreatedAt time.Time  `json:"created_at"` // UTC
	CreatedBy string     `json:"created_by,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"` // UTC
	UpdatedBy string     `json:"updated_by,omitempty"`
	DeletedAt *time.Time `json:"-"`
	DeletedBy string     `json:"-"`
}

// StartsAt returns the lesson's start instant. The time fields are validated
// on every write, so parse failures cannot occur on stored lessons.
func (l *Lesson) StartsAt() time.Time {
	t, _ := CombineDateTime(l.Date, l.StartTime)
	return t
}

func (l *Lesson) EndsAt() time.Time {
	t, _ := CombineDateTime(l.Date, l.EndTime)
	return t
}

func (l *Lesson) Ref() Ref {
	return Ref{ID: l.ID, Code: l.Code, Name: l.Name}
}

// Ref is a reference to a colliding lesson within a ConflictReport.
type Ref struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// TimeSlot is a transient, creation-time slot; each slot becomes one persisted
// Lesson. Token correlates an externally-minted meeting link back to its slot.
type TimeSlot struct {
	Date      time.Time `json:"date" validate:"required"`
	StartTime string    `json:"start_time" validate:"required,timeofday"`
	EndTime   string    `json:"end_time" validate:"required,timeofday"`

	Token string `json:"-"`
}

// Window returns the slot's start and end instants.
func (ts TimeSlot) Window() (start, end time.Time, err error) {
	if start, err = CombineDateTime(ts.Date, ts.StartTime); err != nil {
		return
	}
	end, err = CombineDateTime(ts.Date, ts.EndTime)
	return
}

// NewLessonBatch contains information needed to create one or more lessons
// sharing name, teacher, classroom, subject and roster across distinct time slots.
type NewLessonBatch struct {
	Name        string     `json:"name" validate:"required"`
	ClassroomID string     `json:"classroom_id" validate:"required,uuid4"`
	CourseID    string     `json:"course_id" validate:"required,uuid4"`
	SubjectID   string     `json:"subject_id" validate:"omitempty,uuid4"`
	TeacherID   string     `json:"teacher_id" validate:"required,uuid4"`
	StudentIDs  []string   `json:"student_ids" validate:"required,min=1,unique,dive,uuid4"`
	Slots       []TimeSlot `json:"slots" validate:"required,min=1,dive"`
	Room        string     `json:"room"`
	SyllabusID  string     `json:"syllabus_id" validate:"omitempty,uuid4"`
	LectureIDs  []string   `json:"lecture_ids" validate:"omitempty,unique,dive,uuid4"`
	WithMeeting bool       `json:"with_meeting"`
}

func (nb *NewLessonBatch) Validate(validate *validator.Validate) error {
	nb.Name = core.CleanString(nb.Name)
	nb.Room = core.CleanString(nb.Room)
	return validate.Struct(nb)
}

// UpdateLesson is a tagged patch: nil pointer / nil slice fields are absent
// from the patch and leave the lesson unchanged.
type UpdateLesson struct {
	Name        *string    `json:"name"`
	ClassroomID *string    `json:"classroom_id" validate:"omitempty,uuid4"`
	SubjectID   *string    `json:"subject_id"`
	TeacherID   *string    `json:"teacher_id" validate:"omitempty,uuid4"`
	StudentIDs  []string   `json:"student_ids" validate:"omitempty,min=1,unique,dive,uuid4"`
	Date        *time.Time `json:"date"`
	StartTime   *string    `json:"start_time" validate:"omitempty,timeofday"`
	EndTime     *string    `json:"end_time" validate:"omitempty,timeofday"`
	Room        *string    `json:"room"`
	SyllabusID  *string    `json:"syllabus_id"`
	LectureIDs  []string   `json:"lecture_ids" validate:"omitempty,unique,dive,uuid4"`
	Documents   []string   `json:"documents"`
	Recordings  []string   `json:"recordings"`
	WithMeeting bool       `json:"with_meeting"`
}

func (ul *UpdateLesson) Validate(validate *validator.Validate) error {
	if ul.Name != nil {
		name := core.CleanString(*ul.Name)
		ul.Name = &name
	}
	return validate.Struct(ul)
}

// attachmentFields may still change inside the edit lead time window.
var attachmentFields = map[string]bool{
	"documents":  true,
	"recordings": true,
}

// presentFields returns the json names of all fields present in the patch.
func (ul *UpdateLesson) presentFields() []string {
	var fields []string
	add := func(name string, present bool) {
		if present {
			fields = append(fields, name)
		}
	}
	add("name", ul.Name != nil)
	add("classroom_id", ul.ClassroomID != nil)
	add("subject_id", ul.SubjectID != nil)
	add("teacher_id", ul.TeacherID != nil)
	add("student_ids", ul.StudentIDs != nil)
	add("date", ul.Date != nil)
	add("start_time", ul.StartTime != nil)
	add("end_time", ul.EndTime != nil)
	add("room", ul.Room != nil)
	add("syllabus_id", ul.SyllabusID != nil)
	add("lecture_ids", ul.LectureIDs != nil)
	add("documents", ul.Documents != nil)
	add("recordings", ul.Recordings != nil)
	return fields
}

// restrictedFields returns the present fields that are locked inside the edit
// lead time window.
func (ul *UpdateLesson) restrictedFields() []string {
	var fields []string
	for _, f := range ul.presentFields() {
		if !attachmentFields[f] {
			fields = append(fields, f)
		}
	}
	return fields
}

// touchesSchedule reports whether the patch changes any conflict-relevant field.
func (ul *UpdateLesson) touchesSchedule() bool {
	return ul.TeacherID != nil ||
		ul.ClassroomID != nil ||
		ul.SubjectID != nil ||
		ul.StudentIDs != nil ||
		ul.Date != nil ||
		ul.StartTime != nil ||
		ul.EndTime != nil
}

// apply returns a copy of lsn with the patch applied. It does not touch audit fields.
func (ul *UpdateLesson) apply(lsn Lesson) Lesson {
	if ul.Name != nil {
		lsn.Name = *ul.Name
	}
	if ul.ClassroomID != nil {
		lsn.ClassroomID = *ul.ClassroomID
	}
	if ul.SubjectID != nil {
		lsn.SubjectID = *ul.SubjectID
	}
	if ul.TeacherID != nil {
		lsn.TeacherID = *ul.TeacherID
	}
	if ul.StudentIDs != nil {
		lsn.StudentIDs = ul.StudentIDs
	}
	if ul.Date != nil {
		lsn.Date = ul.Date.UTC().Truncate(24 * time.Hour)
	}
	if ul.StartTime != nil {
		lsn.StartTime = *ul.StartTime
	}
	if ul.EndTime != nil {
		lsn.EndTime = *ul.EndTime
	}
	if ul.Room != nil {
		lsn.Room = *ul.Room
	}
	if ul.SyllabusID != nil {
		lsn.SyllabusID = *ul.SyllabusID
	}
	if ul.LectureIDs != nil {
		lsn.LectureIDs = ul.LectureIDs
	}
	if ul.Documents != nil {
		lsn.Documents = ul.Documents
	}
	if ul.Recordings != nil {
		lsn.Recordings = ul.Recordings
	}
	return lsn
}

type QueryFilter struct {
	TeacherID   string    `query:"teacher_id"`
	ClassroomID string    `query:"classroom_id"`
	StudentID   string    `query:"student_id"`
	CourseID    string    `query:"course_id"`
	DateFrom    time.Time `query:"date_from"`
	DateTo      time.Time `query:"date_to"`
	// Status filters on the derived status; it is applied after the store query.
	Status Status `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.TeacherID == "" && qf.ClassroomID == "" && qf.StudentID == "" &&
		qf.CourseID == "" && qf.DateFrom.IsZero() && qf.DateTo.IsZero() && qf.Status == ""
}
