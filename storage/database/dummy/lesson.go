package dummydb

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/lesson"
)

type lessonRepository struct {
	db *lessonTable
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *DB) lesson.Repository {
	return &lessonRepository{db: db.lesson}
}

func (repo *lessonRepository) query() []lesson.Lesson {
	lessons := make([]lesson.Lesson, 0, len(repo.db.table))
	for _, lsn := range repo.db.table {
		if lsn.DeletedAt == nil {
			lessons = append(lessons, *lsn)
		}
	}
	return lessons
}

func (repo *lessonRepository) CreateLessons(ctx context.Context, lessons []lesson.Lesson, exec ...core.DBExecutor) ([]lesson.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i := range lessons {
		lsn := lessons[i]
		repo.db.table[lsn.ID] = &lsn
	}
	return lessons, nil
}

func (repo *lessonRepository) GetLesson(ctx context.Context, id string, exec ...core.DBExecutor) (lesson.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if lsn, ok := repo.db.table[id]; ok && lsn.DeletedAt == nil {
		return *lsn, nil
	}
	return lesson.Lesson{}, lesson.ErrNotFound
}

func (repo *lessonRepository) QueryLessons(ctx context.Context, filter *lesson.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]lesson.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	lessons := repo.query()
	if filter != nil {
		var filtered []lesson.Lesson
		for _, lsn := range lessons {
			if filter.TeacherID != "" && lsn.TeacherID != filter.TeacherID {
				continue
			}
			if filter.ClassroomID != "" && lsn.ClassroomID != filter.ClassroomID {
				continue
			}
			if filter.CourseID != "" && lsn.CourseID != filter.CourseID {
				continue
			}
			if filter.StudentID != "" && !onRoster(lsn, filter.StudentID) {
				continue
			}
			if !filter.DateFrom.IsZero() && lsn.Date.Before(filter.DateFrom) {
				continue
			}
			if !filter.DateTo.IsZero() && lsn.Date.After(filter.DateTo) {
				continue
			}
			filtered = append(filtered, lsn)
		}
		lessons = filtered
	}

	sort.Slice(lessons, func(i, j int) bool {
		if !lessons[i].Date.Equal(lessons[j].Date) {
			return lessons[i].Date.Before(lessons[j].Date)
		}
		if lessons[i].StartTime != lessons[j].StartTime {
			return lessons[i].StartTime < lessons[j].StartTime
		}
		return lessons[i].Code < lessons[j].Code
	})
	return lessons, nil
}

func (repo *lessonRepository) QueryOverlapping(ctx context.Context, date time.Time, startTime, endTime, excludeID string, exec ...core.DBExecutor) ([]lesson.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	start, err := lesson.CombineDateTime(date, startTime)
	if err != nil {
		return nil, err
	}
	end, err := lesson.CombineDateTime(date, endTime)
	if err != nil {
		return nil, err
	}

	var overlapping []lesson.Lesson
	for _, lsn := range repo.query() {
		if lsn.ID == excludeID {
			continue
		}
		if !sameDay(lsn.Date, date) {
			continue
		}
		if lesson.Overlaps(lsn.StartsAt(), lsn.EndsAt(), start, end) {
			overlapping = append(overlapping, lsn)
		}
	}
	return overlapping, nil
}

var codeSeqRegex = regexp.MustCompile(`(\d{4})$`)

func (repo *lessonRepository) MaxCodeSeq(ctx context.Context, prefix string, year int, exec ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	codePrefix := prefix + strconv.Itoa(year)
	var max int
	for _, lsn := range repo.db.table { // deleted lessons keep their codes
		if len(lsn.Code) <= len(codePrefix) || lsn.Code[:len(codePrefix)] != codePrefix {
			continue
		}
		m := codeSeqRegex.FindString(lsn.Code)
		if m == "" {
			continue
		}
		if seq, err := strconv.Atoi(m); err == nil && seq > max {
			max = seq
		}
	}
	return max, nil
}

func (repo *lessonRepository) UpdateLesson(ctx context.Context, lsn lesson.Lesson, exec ...core.DBExecutor) (lesson.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[lsn.ID]
	if !ok || orig.DeletedAt != nil {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	*orig = lsn
	return lsn, nil
}

func (repo *lessonRepository) SoftDeleteLessons(ctx context.Context, ids []string, by string, at time.Time, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		lsn, ok := repo.db.table[id]
		if !ok || lsn.DeletedAt != nil {
			return lesson.ErrNotFound
		}
		deletedAt := at
		lsn.DeletedAt = &deletedAt
		lsn.DeletedBy = by
	}
	return nil
}

func onRoster(lsn lesson.Lesson, studentID string) bool {
	for _, sid := range lsn.StudentIDs {
		if sid == studentID {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
