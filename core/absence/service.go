package absence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/lesson"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("absence request not found")
	ErrDuplicateRequest = errors.New("an absence request for this lesson is already being processed")
)

type (
	Repository interface {
		// CreateRequest inserts the request. The store enforces the single
		// PROCESSING request per (user, lesson) invariant and returns
		// ErrDuplicateRequest on a second one.
		CreateRequest(ctx context.Context, req Request, exec ...core.DBExecutor) (Request, error)
		GetRequest(ctx context.Context, id string, exec ...core.DBExecutor) (Request, error)
		QueryRequests(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Request, error)
		UpdateRequest(ctx context.Context, req Request, exec ...core.DBExecutor) (Request, error)
	}

	Service interface {
		// Submit files an absence request by actor for a lesson it attends.
		Submit(ctx context.Context, actor user.User, nr NewRequest) (Request, error)
		GetByID(ctx context.Context, id string) (Request, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Request, error)
		Approve(ctx context.Context, reviewer user.User, id string) (Request, error)
		Unapprove(ctx context.Context, reviewer user.User, id string) (Request, error)
	}

	service struct {
		repo    Repository
		lsnRepo lesson.Repository
		now     func() time.Time // mockable
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, lsnRepo lesson.Repository) Service {
	return &service{
		repo:    repo,
		lsnRepo: lsnRepo,
		now:     time.Now,
	}
}

func (svc *service) Submit(ctx context.Context, actor user.User, nr NewRequest) (Request, error) {
	lsn, err := svc.lsnRepo.GetLesson(ctx, nr.LessonID)
	if err != nil {
		if errors.Cause(err) == lesson.ErrNotFound {
			return Request{}, core.NewNotFoundError("lesson", nr.LessonID)
		}
		return Request{}, errors.Wrap(err, "finding lesson")
	}

	var onRoster bool
	for _, sid := range lsn.StudentIDs {
		if sid == actor.ID {
			onRoster = true
			break
		}
	}
	if !onRoster {
		return Request{}, core.NewValidationError(nil,
			core.FieldError{Field: "lesson_id", Error: "you are not on this lesson's roster"})
	}

	now := svc.now().UTC()
	req, err := svc.repo.CreateRequest(ctx, Request{
		ID:        uuid.New().String(),
		LessonID:  nr.LessonID,
		UserID:    actor.ID,
		Reason:    nr.Reason,
		Status:    StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Cause(err) == ErrDuplicateRequest {
			return Request{}, core.NewValidationError(err,
				core.FieldError{Field: "lesson_id", Error: ErrDuplicateRequest.Error()})
		}
		return Request{}, errors.Wrap(err, "creating absence request")
	}
	return req, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Request, error) {
	return svc.repo.GetRequest(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Request, error) {
	return svc.repo.QueryRequests(ctx, filter, ordering)
}

func (svc *service) Approve(ctx context.Context, reviewer user.User, id string) (Request, error) {
	return svc.review(ctx, reviewer, id, StatusApproved)
}

func (svc *service) Unapprove(ctx context.Context, reviewer user.User, id string) (Request, error) {
	return svc.review(ctx, reviewer, id, StatusUnapproved)
}

func (svc *service) review(ctx context.Context, reviewer user.User, id string, status Status) (Request, error) {
	req, err := svc.repo.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}

	now := svc.now().UTC()
	req.Status = status
	req.UpdatedAt = now
	req.ReviewedAt = &now
	req.ReviewedBy = reviewer.ID
	return svc.repo.UpdateRequest(ctx, req)
}
