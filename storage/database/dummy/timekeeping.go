package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/timekeeping"
)

type timekeepingRepository struct {
	db *timekeepingTable
}

var _ timekeeping.Repository = (*timekeepingRepository)(nil) // interface compliance check

func NewTimekeepingRepository(db *DB) timekeeping.Repository {
	return &timekeepingRepository{db: db.timekeeping}
}

func (repo *timekeepingRepository) UpsertRecord(ctx context.Context, rec timekeeping.Record, exec ...core.DBExecutor) (timekeeping.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.LessonID == rec.LessonID && existing.UserID == rec.UserID {
			existing.IsAttended = rec.IsAttended
			existing.RecordedAt = rec.RecordedAt
			existing.RecordedBy = rec.RecordedBy
			return *existing, nil
		}
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	repo.db.table[rec.ID] = &rec
	return rec, nil
}

func (repo *timekeepingRepository) QueryRecords(ctx context.Context, filter *timekeeping.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]timekeeping.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var records []timekeeping.Record
	for _, rec := range repo.db.table {
		if filter != nil {
			if filter.LessonID != "" && rec.LessonID != filter.LessonID {
				continue
			}
			if filter.UserID != "" && rec.UserID != filter.UserID {
				continue
			}
		}
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].RecordedAt.Before(records[j].RecordedAt) })
	return records, nil
}
