package timekeeping

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/lesson"
	"github.com/trezcool/darasa/core/user"
)

var ErrNotFound = errors.New("timekeeping record not found")

type (
	Repository interface {
		// UpsertRecord inserts the record, or overwrites the existing one for
		// the same (user, lesson). rec.ID is ignored on overwrite; the stored
		// record keeps its identity.
		UpsertRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		QueryRecords(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Record, error)
	}

	Service interface {
		// Submit records one user's attendance; resubmission overwrites.
		Submit(ctx context.Context, actor user.User, nr NewRecord) (Record, error)
		// BulkSubmit records attendance for a lesson's roster in one shot.
		BulkSubmit(ctx context.Context, actor user.User, nb NewBulkRecord) ([]Record, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Record, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		lsnRepo lesson.Repository
		now     func() time.Time // mockable
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, lsnRepo lesson.Repository) Service {
	return &service{
		db:      db,
		repo:    repo,
		lsnRepo: lsnRepo,
		now:     time.Now,
	}
}

func (svc *service) Submit(ctx context.Context, actor user.User, nr NewRecord) (Record, error) {
	lsn, err := svc.getLesson(ctx, nr.LessonID)
	if err != nil {
		return Record{}, err
	}
	if err = checkRoster(lsn, nr.UserID); err != nil {
		return Record{}, err
	}

	return svc.repo.UpsertRecord(ctx, Record{
		ID:         uuid.New().String(),
		LessonID:   nr.LessonID,
		UserID:     nr.UserID,
		IsAttended: nr.IsAttended,
		RecordedAt: svc.now().UTC(),
		RecordedBy: actor.ID,
	})
}

func (svc *service) BulkSubmit(ctx context.Context, actor user.User, nb NewBulkRecord) ([]Record, error) {
	lsn, err := svc.getLesson(ctx, nb.LessonID)
	if err != nil {
		return nil, err
	}
	for _, entry := range nb.Entries {
		if err = checkRoster(lsn, entry.UserID); err != nil {
			return nil, err
		}
	}

	now := svc.now().UTC()
	records := make([]Record, 0, len(nb.Entries))
	err = core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		for _, entry := range nb.Entries {
			rec, err := svc.repo.UpsertRecord(ctx, Record{
				ID:         uuid.New().String(),
				LessonID:   nb.LessonID,
				UserID:     entry.UserID,
				IsAttended: entry.IsAttended,
				RecordedAt: now,
				RecordedBy: actor.ID,
			}, tx)
			if err != nil {
				return errors.Wrap(err, "upserting timekeeping record")
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, filter, ordering)
}

func (svc *service) getLesson(ctx context.Context, id string) (lesson.Lesson, error) {
	lsn, err := svc.lsnRepo.GetLesson(ctx, id)
	if err != nil {
		if errors.Cause(err) == lesson.ErrNotFound {
			return lesson.Lesson{}, core.NewNotFoundError("lesson", id)
		}
		return lesson.Lesson{}, errors.Wrap(err, "finding lesson")
	}
	return lsn, nil
}

func checkRoster(lsn lesson.Lesson, userID string) error {
	if userID == lsn.TeacherID {
		return nil
	}
	for _, sid := range lsn.StudentIDs {
		if sid == userID {
			return nil
		}
	}
	return core.NewValidationError(nil,
		core.FieldError{Field: "user_id", Error: "user is not on this lesson's roster"})
}
