package absence_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/absence"
	"github.com/trezcool/darasa/core/lesson"
	"github.com/trezcool/darasa/core/user"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

var testNow = time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)

type fixture struct {
	svc      absence.Service
	student  user.User
	student2 user.User
	reviewer user.User
	lsn      lesson.Lesson
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := dummydb.Open()
	require.NoError(t, err)
	lsnRepo := dummydb.NewLessonRepository(db)

	f := &fixture{
		svc:      absence.NewServiceMock(dummydb.NewAbsenceRepository(db), lsnRepo, testNow),
		student:  user.User{ID: uuid.New().String(), Roles: []string{user.RoleStudent}},
		student2: user.User{ID: uuid.New().String(), Roles: []string{user.RoleStudent}},
		reviewer: user.User{ID: uuid.New().String(), Roles: []string{user.RoleTeacher}},
	}

	lessons, err := lsnRepo.CreateLessons(ctx, []lesson.Lesson{{
		ID:         uuid.New().String(),
		Code:       "LSN20240001",
		Name:       "Algebra basics",
		TeacherID:  f.reviewer.ID,
		StudentIDs: []string{f.student.ID, f.student2.ID},
		Date:       time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		StartTime:  "09:00",
		EndTime:    "10:00",
	}})
	require.NoError(t, err)
	f.lsn = lessons[0]
	return f
}

func TestServiceSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("files a processing request", func(t *testing.T) {
		f := newFixture(t)

		req, err := f.svc.Submit(ctx, f.student, absence.NewRequest{LessonID: f.lsn.ID, Reason: "sick"})
		require.NoError(t, err)
		assert.Equal(t, absence.StatusProcessing, req.Status)
		assert.Equal(t, f.student.ID, req.UserID)
		assert.Equal(t, testNow, req.CreatedAt)
	})

	t.Run("second processing request for the same lesson is rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Submit(ctx, f.student, absence.NewRequest{LessonID: f.lsn.ID, Reason: "sick"})
		require.NoError(t, err)

		_, err = f.svc.Submit(ctx, f.student, absence.NewRequest{LessonID: f.lsn.ID, Reason: "still sick"})
		require.Error(t, err)
		_, ok := err.(*core.ValidationError)
		assert.True(t, ok, "want ValidationError, got %T", err)
	})

	t.Run("another student may still file one", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Submit(ctx, f.student, absence.NewRequest{LessonID: f.lsn.ID, Reason: "sick"})
		require.NoError(t, err)

		req, err := f.svc.Submit(ctx, f.student2, absence.NewRequest{LessonID: f.lsn.ID, Reason: "travel"})
		require.NoError(t, err)
		assert.Equal(t, f.student2.ID, req.UserID)
	})

	t.Run("reviewed request unblocks a new one", func(t *testing.T) {
		f := newFixture(t)

		req, err := f.svc.Submit(ctx, f.student, absence.NewRequest{LessonID: f.lsn.ID, Reason: "sick"})
		require.NoError(t, err)
		_, err = f.svc.Approve(ctx, f.reviewer, req.ID)
		require.NoError(t, err)

		_, err = f.svc.Submit(ctx, f.student, absence.NewRequest{LessonID: f.lsn.ID, Reason: "again"})
		assert.NoError(t, err)
	})

	t.Run("not on the roster", func(t *testing.T) {
		f := newFixture(t)

		outsider := user.User{ID: uuid.New().String(), Roles: []string{user.RoleStudent}}
		_, err := f.svc.Submit(ctx, outsider, absence.NewRequest{LessonID: f.lsn.ID, Reason: "sick"})
		require.Error(t, err)
		_, ok := err.(*core.ValidationError)
		assert.True(t, ok, "want ValidationError, got %T", err)
	})

	t.Run("unknown lesson", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Submit(ctx, f.student, absence.NewRequest{LessonID: uuid.New().String(), Reason: "sick"})
		require.Error(t, err)
		_, ok := err.(*core.NotFoundError)
		assert.True(t, ok, "want NotFoundError, got %T", err)
	})
}

func TestServiceReview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req, err := f.svc.Submit(ctx, f.student, absence.NewRequest{LessonID: f.lsn.ID, Reason: "sick"})
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, f.reviewer, req.ID)
	require.NoError(t, err)
	assert.Equal(t, absence.StatusApproved, approved.Status)
	assert.Equal(t, f.reviewer.ID, approved.ReviewedBy)
	require.NotNil(t, approved.ReviewedAt)
	assert.Equal(t, testNow, *approved.ReviewedAt)

	unapproved, err := f.svc.Unapprove(ctx, f.reviewer, req.ID)
	require.NoError(t, err)
	assert.Equal(t, absence.StatusUnapproved, unapproved.Status)

	_, err = f.svc.Approve(ctx, f.reviewer, uuid.New().String())
	assert.Equal(t, absence.ErrNotFound, err)
}

func TestServiceQuery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.svc.Submit(ctx, f.student, absence.NewRequest{LessonID: f.lsn.ID, Reason: "sick"})
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, f.student2, absence.NewRequest{LessonID: f.lsn.ID, Reason: "travel"})
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.reviewer, first.ID)
	require.NoError(t, err)

	all, err := f.svc.Query(ctx, &absence.QueryFilter{LessonID: f.lsn.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	processing, err := f.svc.Query(ctx, &absence.QueryFilter{LessonID: f.lsn.ID, Status: absence.StatusProcessing})
	require.NoError(t, err)
	require.Len(t, processing, 1)
	assert.Equal(t, f.student2.ID, processing[0].UserID)

	mine, err := f.svc.Query(ctx, &absence.QueryFilter{UserID: f.student.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, absence.StatusApproved, mine[0].Status)
}
