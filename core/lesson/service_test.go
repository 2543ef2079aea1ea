package lesson_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/lesson"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
	meetingsvc "github.com/trezcool/darasa/services/meeting"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

var testNow = time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)

type fixture struct {
	db        *dummydb.DB
	repo      lesson.Repository
	usrRepo   user.Repository
	schRepo   school.Repository
	meetSvc   *meetingsvc.ServiceMock
	svc       lesson.Service
	admin     user.User
	teacher   user.User
	teacher2  user.User
	students  []user.User
	classroom school.Classroom
	course    school.Course
	subject   school.Subject
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := dummydb.Open()
	require.NoError(t, err)

	f := &fixture{
		db:      db,
		repo:    dummydb.NewLessonRepository(db),
		usrRepo: dummydb.NewUserRepository(db),
		schRepo: dummydb.NewSchoolRepository(db),
		meetSvc: meetingsvc.NewServiceMock(),
	}

	conf := &core.Config{}
	conf.Lesson.CodePrefix = "LSN"
	conf.Lesson.EditLeadTime = 2 * time.Hour
	conf.Lesson.ProvisionConcurrency = 2
	f.svc = lesson.NewServiceMock(db, f.repo, f.usrRepo, f.schRepo, f.meetSvc, nil, conf, testNow)

	newUser := func(name string, roles ...string) user.User {
		usr, err := f.usrRepo.CreateUser(ctx, user.User{
			ID:       uuid.New().String(),
			Name:     name,
			Username: name,
			Email:    name + "@darasa.test",
			IsActive: true,
			Roles:    roles,
		})
		require.NoError(t, err)
		return usr
	}
	f.admin = newUser("admin", user.RoleAdminPrincipal)
	f.teacher = newUser("mwalimu", user.RoleTeacher)
	f.teacher2 = newUser("profesa", user.RoleTeacher)
	for _, name := range []string{"asha", "baraka", "chiku"} {
		f.students = append(f.students, newUser(name, user.RoleStudent))
	}

	f.classroom, err = f.schRepo.CreateClassroom(ctx, school.Classroom{ID: uuid.New().String(), Name: "A1"})
	require.NoError(t, err)
	f.course, err = f.schRepo.CreateCourse(ctx, school.Course{ID: uuid.New().String(), Name: "Mathematics"})
	require.NoError(t, err)
	f.subject, err = f.schRepo.CreateSubject(ctx, school.Subject{ID: uuid.New().String(), Name: "Algebra", CourseID: f.course.ID})
	require.NoError(t, err)
	return f
}

func (f *fixture) studentIDs() []string {
	ids := make([]string, 0, len(f.students))
	for _, s := range f.students {
		ids = append(ids, s.ID)
	}
	return ids
}

func (f *fixture) batch(slots ...lesson.TimeSlot) lesson.NewLessonBatch {
	return lesson.NewLessonBatch{
		Name:        "Algebra basics",
		ClassroomID: f.classroom.ID,
		CourseID:    f.course.ID,
		SubjectID:   f.subject.ID,
		TeacherID:   f.teacher.ID,
		StudentIDs:  f.studentIDs(),
		Slots:       slots,
	}
}

func slotOn(day time.Time, start, end string) lesson.TimeSlot {
	return lesson.TimeSlot{Date: day, StartTime: start, EndTime: end}
}

var day = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func TestServiceCreateBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("one lesson per slot with consecutive codes", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.svc.CreateBatch(ctx, f.admin, f.batch(
			slotOn(day, "09:00", "10:00"),
			slotOn(day, "11:00", "12:00"),
			slotOn(day.AddDate(0, 0, 1), "09:00", "10:00"),
		))
		require.NoError(t, err)
		require.Len(t, created, 3)

		assert.Equal(t, "LSN20240001", created[0].Code)
		assert.Equal(t, "LSN20240002", created[1].Code)
		assert.Equal(t, "LSN20240003", created[2].Code)
		for _, lsn := range created {
			assert.Equal(t, lesson.StatusUpcoming, lsn.Status)
			assert.Equal(t, f.teacher.ID, lsn.TeacherID)
			assert.Equal(t, f.admin.ID, lsn.CreatedBy)
			assert.Empty(t, lsn.MeetingURL)
		}
	})

	t.Run("codes continue after the year's highest sequence", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.CreateBatch(ctx, f.admin, f.batch(slotOn(day, "08:00", "09:00")))
		require.NoError(t, err)

		created, err := f.svc.CreateBatch(ctx, f.admin, f.batch(
			slotOn(day, "09:00", "10:00"),
			slotOn(day, "10:00", "11:00"),
		))
		require.NoError(t, err)
		require.Len(t, created, 2)
		assert.Equal(t, "LSN20240002", created[0].Code)
		assert.Equal(t, "LSN20240003", created[1].Code)
	})

	t.Run("meeting links minted per slot", func(t *testing.T) {
		f := newFixture(t)

		nb := f.batch(slotOn(day, "09:00", "10:00"), slotOn(day, "11:00", "12:00"))
		nb.WithMeeting = true

		created, err := f.svc.CreateBatch(ctx, f.admin, nb)
		require.NoError(t, err)
		require.Len(t, created, 2)
		assert.NotEmpty(t, created[0].MeetingURL)
		assert.NotEmpty(t, created[1].MeetingURL)
		assert.NotEqual(t, created[0].MeetingURL, created[1].MeetingURL)
		assert.Len(t, f.meetSvc.Requests(), 2)
	})

	t.Run("provisioning failure persists nothing", func(t *testing.T) {
		f := newFixture(t)
		f.meetSvc.Err = assert.AnError

		nb := f.batch(slotOn(day, "09:00", "10:00"), slotOn(day, "11:00", "12:00"))
		nb.WithMeeting = true

		_, err := f.svc.CreateBatch(ctx, f.admin, nb)
		require.Error(t, err)
		provErr, ok := err.(*lesson.ProvisioningError)
		require.True(t, ok, "want ProvisioningError, got %T", err)
		assert.Len(t, provErr.Failures, 2)

		lessons, err := f.svc.Query(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, lessons)
	})

	t.Run("unknown teacher", func(t *testing.T) {
		f := newFixture(t)

		nb := f.batch(slotOn(day, "09:00", "10:00"))
		nb.TeacherID = uuid.New().String()

		_, err := f.svc.CreateBatch(ctx, f.admin, nb)
		require.Error(t, err)
		_, ok := err.(*core.NotFoundError)
		assert.True(t, ok, "want NotFoundError, got %T", err)
	})

	t.Run("teacher role required", func(t *testing.T) {
		f := newFixture(t)

		nb := f.batch(slotOn(day, "09:00", "10:00"))
		nb.TeacherID = f.students[0].ID

		_, err := f.svc.CreateBatch(ctx, f.admin, nb)
		require.Error(t, err)
		_, ok := err.(*core.ValidationError)
		assert.True(t, ok, "want ValidationError, got %T", err)
	})

	t.Run("inverted time window", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.CreateBatch(ctx, f.admin, f.batch(slotOn(day, "10:00", "09:00")))
		require.Error(t, err)
		_, ok := err.(*core.ValidationError)
		assert.True(t, ok, "want ValidationError, got %T", err)
	})

	t.Run("overlapping batch slots persist nothing", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.CreateBatch(ctx, f.admin, f.batch(
			slotOn(day, "09:00", "10:30"),
			slotOn(day, "10:00", "11:00"),
		))
		require.Error(t, err)
		confErr, ok := err.(*lesson.ConflictError)
		require.True(t, ok, "want ConflictError, got %T", err)
		assert.Len(t, confErr.Report.BatchSlots, 1)

		lessons, err := f.svc.Query(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, lessons)
	})
}

// One overlapping teacher must reject the create with a reference to the
// existing lesson; a distinct teacher touching the boundary must pass.
func TestServiceCreateBatchTeacherConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	existing, err := f.svc.CreateBatch(ctx, f.admin, f.batch(slotOn(day, "09:00", "10:00")))
	require.NoError(t, err)
	l1 := existing[0]

	_, err = f.svc.CreateBatch(ctx, f.admin, f.batch(slotOn(day, "09:30", "10:30")))
	require.Error(t, err)
	confErr, ok := err.(*lesson.ConflictError)
	require.True(t, ok, "want ConflictError, got %T", err)
	require.NotEmpty(t, confErr.Report.Teacher)
	assert.Equal(t, l1.ID, confErr.Report.Teacher[0].ID)
	assert.Equal(t, l1.Code, confErr.Report.Teacher[0].Code)

	// same window, different teacher and roster: only classroom+subject collides
	nb := f.batch(slotOn(day, "09:30", "10:30"))
	nb.TeacherID = f.teacher2.ID
	nb.StudentIDs = []string{f.admin.ID}
	_, err = f.svc.CreateBatch(ctx, f.admin, nb)
	require.Error(t, err)
	confErr, ok = err.(*lesson.ConflictError)
	require.True(t, ok, "want ConflictError, got %T", err)
	assert.Empty(t, confErr.Report.Teacher)
	assert.NotEmpty(t, confErr.Report.ClassroomSubject)

	// touching the end boundary does not conflict
	nb = f.batch(slotOn(day, "10:00", "11:00"))
	nb.TeacherID = f.teacher2.ID
	created, err := f.svc.CreateBatch(ctx, f.admin, nb)
	require.NoError(t, err)
	assert.Len(t, created, 1)
}

func TestServiceCreateBatchStudentConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CreateBatch(ctx, f.admin, f.batch(slotOn(day, "09:00", "10:00")))
	require.NoError(t, err)

	// different teacher and room, one shared student
	nb := f.batch(slotOn(day, "09:00", "10:00"))
	nb.TeacherID = f.teacher2.ID
	nb.SubjectID = ""
	nb.StudentIDs = []string{f.students[1].ID}

	_, err = f.svc.CreateBatch(ctx, f.admin, nb)
	require.Error(t, err)
	confErr, ok := err.(*lesson.ConflictError)
	require.True(t, ok, "want ConflictError, got %T", err)
	require.Len(t, confErr.Report.Students, 1)
	assert.Equal(t, f.students[1].ID, confErr.Report.Students[0].StudentID)
}

func TestServiceQuery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// 04:00-05:00 completed, 05:30-06:30 ongoing, 09:00-10:00 upcoming at testNow (06:00)
	created, err := f.svc.CreateBatch(ctx, f.admin, f.batch(
		slotOn(day, "04:00", "05:00"),
		slotOn(day, "05:30", "06:30"),
		slotOn(day, "09:00", "10:00"),
	))
	require.NoError(t, err)
	require.Len(t, created, 3)

	all, err := f.svc.Query(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, lesson.StatusCompleted, all[0].Status)
	assert.Equal(t, lesson.StatusOngoing, all[1].Status)
	assert.Equal(t, lesson.StatusUpcoming, all[2].Status)

	ongoing, err := f.svc.Query(ctx, &lesson.QueryFilter{Status: lesson.StatusOngoing})
	require.NoError(t, err)
	require.Len(t, ongoing, 1)
	assert.Equal(t, "05:30", ongoing[0].StartTime)

	none, err := f.svc.Query(ctx, &lesson.QueryFilter{TeacherID: f.teacher2.ID})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()

	create := func(t *testing.T, f *fixture, start, end string) lesson.Lesson {
		t.Helper()
		created, err := f.svc.CreateBatch(ctx, f.admin, f.batch(slotOn(day, start, end)))
		require.NoError(t, err)
		return created[0]
	}

	t.Run("rename outside the lead time", func(t *testing.T) {
		f := newFixture(t)
		lsn := create(t, f, "09:00", "10:00")

		name := "Linear equations"
		updated, err := f.svc.Update(ctx, f.admin, lsn.ID, lesson.UpdateLesson{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, name, updated.Name)
		assert.Equal(t, lsn.Code, updated.Code)

		got, err := f.svc.GetByID(ctx, lsn.ID)
		require.NoError(t, err)
		assert.Equal(t, name, got.Name)
	})

	t.Run("restricted field inside the lead time", func(t *testing.T) {
		f := newFixture(t)
		lsn := create(t, f, "07:00", "08:00") // testNow+1h

		name := "Linear equations"
		_, err := f.svc.Update(ctx, f.admin, lsn.ID, lesson.UpdateLesson{Name: &name})
		require.Error(t, err)
		polErr, ok := err.(*lesson.PolicyViolationError)
		require.True(t, ok, "want PolicyViolationError, got %T", err)
		require.Len(t, polErr.Violations, 1)
		assert.Equal(t, lesson.ViolationFieldLocked, polErr.Violations[0].Tag)
	})

	t.Run("attachments inside the lead time", func(t *testing.T) {
		f := newFixture(t)
		lsn := create(t, f, "07:00", "08:00")

		updated, err := f.svc.Update(ctx, f.admin, lsn.ID, lesson.UpdateLesson{
			Documents: []string{"worksheet.pdf"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"worksheet.pdf"}, updated.Documents)
	})

	t.Run("recordings land on a completed lesson", func(t *testing.T) {
		f := newFixture(t)
		lsn := create(t, f, "04:00", "05:00") // completed at testNow

		updated, err := f.svc.Update(ctx, f.admin, lsn.ID, lesson.UpdateLesson{
			Recordings: []string{"rec.mp4"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"rec.mp4"}, updated.Recordings)
		assert.Equal(t, lesson.StatusCompleted, updated.Status)
	})

	t.Run("reschedule into the past", func(t *testing.T) {
		f := newFixture(t)
		lsn := create(t, f, "09:00", "10:00")

		early := "04:00"
		_, err := f.svc.Update(ctx, f.admin, lsn.ID, lesson.UpdateLesson{StartTime: &early})
		require.Error(t, err)
		polErr, ok := err.(*lesson.PolicyViolationError)
		require.True(t, ok, "want PolicyViolationError, got %T", err)
		require.Len(t, polErr.Violations, 1)
		assert.Equal(t, lesson.ViolationStartInPast, polErr.Violations[0].Tag)
	})

	t.Run("reschedule into a conflict", func(t *testing.T) {
		f := newFixture(t)
		lsn := create(t, f, "09:00", "10:00")
		_ = create(t, f, "11:00", "12:00")

		start, end := "11:30", "12:30"
		_, err := f.svc.Update(ctx, f.admin, lsn.ID, lesson.UpdateLesson{StartTime: &start, EndTime: &end})
		require.Error(t, err)
		_, ok := err.(*lesson.ConflictError)
		assert.True(t, ok, "want ConflictError, got %T", err)
	})

	t.Run("reschedule excludes the lesson itself", func(t *testing.T) {
		f := newFixture(t)
		lsn := create(t, f, "09:00", "10:00")

		// shift by 30min within its own original window
		start, end := "09:30", "10:30"
		updated, err := f.svc.Update(ctx, f.admin, lsn.ID, lesson.UpdateLesson{StartTime: &start, EndTime: &end})
		require.NoError(t, err)
		assert.Equal(t, "09:30", updated.StartTime)
	})

	t.Run("requested meeting link is always fresh", func(t *testing.T) {
		f := newFixture(t)

		nb := f.batch(slotOn(day, "09:00", "10:00"))
		nb.WithMeeting = true
		created, err := f.svc.CreateBatch(ctx, f.admin, nb)
		require.NoError(t, err)
		lsn := created[0]
		require.NotEmpty(t, lsn.MeetingURL)

		updated, err := f.svc.Update(ctx, f.admin, lsn.ID, lesson.UpdateLesson{WithMeeting: true})
		require.NoError(t, err)
		assert.NotEmpty(t, updated.MeetingURL)
		assert.NotEqual(t, lsn.MeetingURL, updated.MeetingURL)
	})

	t.Run("unknown lesson", func(t *testing.T) {
		f := newFixture(t)

		name := "nope"
		_, err := f.svc.Update(ctx, f.admin, uuid.New().String(), lesson.UpdateLesson{Name: &name})
		assert.Equal(t, lesson.ErrNotFound, err)
	})
}

func TestServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("upcoming outside the lead time", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.CreateBatch(ctx, f.admin, f.batch(slotOn(day, "09:00", "10:00")))
		require.NoError(t, err)

		student := f.students[0]
		require.NoError(t, f.svc.Delete(ctx, student, created[0].ID))

		_, err = f.svc.GetByID(ctx, created[0].ID)
		assert.Equal(t, lesson.ErrNotFound, err)
	})

	t.Run("pooled violations reject the whole batch", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.CreateBatch(ctx, f.admin, f.batch(
			slotOn(day, "04:00", "05:00"), // completed at testNow
			slotOn(day, "05:30", "06:30"), // ongoing at testNow
			slotOn(day, "09:00", "10:00"), // upcoming, deletable
		))
		require.NoError(t, err)

		ids := []string{created[0].ID, created[1].ID, created[2].ID}
		err = f.svc.Delete(ctx, f.students[0], ids...)
		require.Error(t, err)
		polErr, ok := err.(*lesson.PolicyViolationError)
		require.True(t, ok, "want PolicyViolationError, got %T", err)
		require.Len(t, polErr.Violations, 2)
		assert.Equal(t, lesson.ViolationCompletedRole, polErr.Violations[0].Tag)
		assert.Equal(t, lesson.ViolationOngoing, polErr.Violations[1].Tag)

		// nothing was tombstoned
		for _, id := range ids {
			_, err = f.svc.GetByID(ctx, id)
			assert.NoError(t, err)
		}
	})

	t.Run("admin deletes a completed lesson", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.CreateBatch(ctx, f.admin, f.batch(slotOn(day, "04:00", "05:00")))
		require.NoError(t, err)

		require.NoError(t, f.svc.Delete(ctx, f.admin, created[0].ID))
		_, err = f.svc.GetByID(ctx, created[0].ID)
		assert.Equal(t, lesson.ErrNotFound, err)
	})

	t.Run("deleted codes are never reused", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.CreateBatch(ctx, f.admin, f.batch(slotOn(day, "09:00", "10:00")))
		require.NoError(t, err)
		require.NoError(t, f.svc.Delete(ctx, f.admin, created[0].ID))

		next, err := f.svc.CreateBatch(ctx, f.admin, f.batch(slotOn(day, "11:00", "12:00")))
		require.NoError(t, err)
		assert.Equal(t, "LSN20240002", next[0].Code)
	})

	t.Run("unknown lesson", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.Delete(ctx, f.admin, uuid.New().String())
		require.Error(t, err)
		_, ok := err.(*core.NotFoundError)
		assert.True(t, ok, "want NotFoundError, got %T", err)
	})
}
