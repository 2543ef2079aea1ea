package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/timekeeping"
	"github.com/trezcool/darasa/storage/database"
)

type timekeepingRepository struct {
	db *database.DB
}

var _ timekeeping.Repository = (*timekeepingRepository)(nil) // interface compliance check

func NewTimekeepingRepository(db *database.DB) timekeeping.Repository {
	return &timekeepingRepository{db: db}
}

type timekeepingRow struct {
	ID         string      `db:"id"`
	LessonID   string      `db:"lesson_id"`
	UserID     string      `db:"user_id"`
	IsAttended bool        `db:"is_attended"`
	RecordedAt time.Time   `db:"recorded_at"`
	RecordedBy null.String `db:"recorded_by"`
}

func (r timekeepingRow) toRecord() timekeeping.Record {
	return timekeeping.Record{
		ID:         r.ID,
		LessonID:   r.LessonID,
		UserID:     r.UserID,
		IsAttended: r.IsAttended,
		RecordedAt: r.RecordedAt,
		RecordedBy: r.RecordedBy.String,
	}
}

func (repo *timekeepingRepository) UpsertRecord(ctx context.Context, rec timekeeping.Record, exec ...core.DBExecutor) (timekeeping.Record, error) {
	ex := getExec(repo.db, exec)

	// the existing row keeps its identity on overwrite
	const query = `
		INSERT INTO timekeeping_record (id, lesson_id, user_id, is_attended, recorded_at, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (lesson_id, user_id) DO UPDATE SET
			is_attended = EXCLUDED.is_attended,
			recorded_at = EXCLUDED.recorded_at,
			recorded_by = EXCLUDED.recorded_by
		RETURNING *`
	var row timekeepingRow
	err := ex.GetContext(ctx, &row, query,
		rec.ID,
		rec.LessonID,
		rec.UserID,
		rec.IsAttended,
		rec.RecordedAt.UTC(),
		null.NewString(rec.RecordedBy, rec.RecordedBy != ""),
	)
	if err != nil {
		return timekeeping.Record{}, trapErr(err, timekeeping.ErrNotFound, "upserting timekeeping record")
	}
	return row.toRecord(), nil
}

func (repo *timekeepingRepository) QueryRecords(ctx context.Context, filter *timekeeping.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]timekeeping.Record, error) {
	ex := getExec(repo.db, exec)

	query := `SELECT * FROM timekeeping_record`
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.LessonID != "" {
			conds = append(conds, "lesson_id = "+arg(filter.LessonID))
		}
		if filter.UserID != "" {
			conds = append(conds, "user_id = "+arg(filter.UserID))
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderBy(ordering, "recorded_at")

	var rows []timekeepingRow
	if err := ex.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, trapErr(err, timekeeping.ErrNotFound, "querying timekeeping records")
	}

	records := make([]timekeeping.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}
