package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/absence"
)

type absenceRepository struct {
	db *absenceTable
}

var _ absence.Repository = (*absenceRepository)(nil) // interface compliance check

func NewAbsenceRepository(db *DB) absence.Repository {
	return &absenceRepository{db: db.absence}
}

func (repo *absenceRepository) CreateRequest(ctx context.Context, req absence.Request, exec ...core.DBExecutor) (absence.Request, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.LessonID == req.LessonID && existing.UserID == req.UserID &&
			existing.Status == absence.StatusProcessing {
			return absence.Request{}, absence.ErrDuplicateRequest
		}
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	repo.db.table[req.ID] = &req
	return req, nil
}

func (repo *absenceRepository) GetRequest(ctx context.Context, id string, exec ...core.DBExecutor) (absence.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if req, ok := repo.db.table[id]; ok {
		return *req, nil
	}
	return absence.Request{}, absence.ErrNotFound
}

func (repo *absenceRepository) QueryRequests(ctx context.Context, filter *absence.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]absence.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var requests []absence.Request
	for _, req := range repo.db.table {
		if filter != nil {
			if filter.LessonID != "" && req.LessonID != filter.LessonID {
				continue
			}
			if filter.UserID != "" && req.UserID != filter.UserID {
				continue
			}
			if filter.Status != "" && req.Status != filter.Status {
				continue
			}
		}
		requests = append(requests, *req)
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].CreatedAt.Before(requests[j].CreatedAt) })
	return requests, nil
}

func (repo *absenceRepository) UpdateRequest(ctx context.Context, req absence.Request, exec ...core.DBExecutor) (absence.Request, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[req.ID]
	if !ok {
		return absence.Request{}, absence.ErrNotFound
	}
	*orig = req
	return req, nil
}
