package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/absence"
	"github.com/trezcool/darasa/storage/database"
)

type absenceRepository struct {
	db *database.DB
}

var _ absence.Repository = (*absenceRepository)(nil) // interface compliance check

func NewAbsenceRepository(db *database.DB) absence.Repository {
	return &absenceRepository{db: db}
}

type absenceRow struct {
	ID         string      `db:"id"`
	LessonID   string      `db:"lesson_id"`
	UserID     string      `db:"user_id"`
	Reason     string      `db:"reason"`
	Status     string      `db:"status"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
	ReviewedAt null.Time   `db:"reviewed_at"`
	ReviewedBy null.String `db:"reviewed_by"`
}

func (r absenceRow) toRequest() absence.Request {
	return absence.Request{
		ID:         r.ID,
		LessonID:   r.LessonID,
		UserID:     r.UserID,
		Reason:     r.Reason,
		Status:     absence.Status(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		ReviewedAt: r.ReviewedAt.Ptr(),
		ReviewedBy: r.ReviewedBy.String,
	}
}

func (repo *absenceRepository) CreateRequest(ctx context.Context, req absence.Request, exec ...core.DBExecutor) (absence.Request, error) {
	ex := getExec(repo.db, exec)

	const query = `
		INSERT INTO absence_request (id, lesson_id, user_id, reason, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := ex.ExecContext(ctx, query,
		req.ID,
		req.LessonID,
		req.UserID,
		req.Reason,
		string(req.Status),
		req.CreatedAt.UTC(),
		req.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err, "absence_request_processing_key") {
			return absence.Request{}, absence.ErrDuplicateRequest
		}
		return absence.Request{}, trapErr(err, absence.ErrNotFound, "creating absence request")
	}
	return req, nil
}

func (repo *absenceRepository) GetRequest(ctx context.Context, id string, exec ...core.DBExecutor) (absence.Request, error) {
	ex := getExec(repo.db, exec)

	var row absenceRow
	const query = `SELECT * FROM absence_request WHERE id = $1`
	if err := ex.GetContext(ctx, &row, query, id); err != nil {
		return absence.Request{}, trapErr(err, absence.ErrNotFound, "getting absence request")
	}
	return row.toRequest(), nil
}

func (repo *absenceRepository) QueryRequests(ctx context.Context, filter *absence.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]absence.Request, error) {
	ex := getExec(repo.db, exec)

	query := `SELECT * FROM absence_request`
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
		if filter.Status != "" {
			conds = append(conds, "status = "+arg(string(filter.Status)))
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderBy(ordering, "created_at")

	var rows []absenceRow
	if err := ex.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, trapErr(err, absence.ErrNotFound, "querying absence requests")
	}

	requests := make([]absence.Request, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, row.toRequest())
	}
	return requests, nil
}

func (repo *absenceRepository) UpdateRequest(ctx context.Context, req absence.Request, exec ...core.DBExecutor) (absence.Request, error) {
	ex := getExec(repo.db, exec)

	const query = `
		UPDATE absence_request
		SET status = $2, updated_at = $3, reviewed_at = $4, reviewed_by = $5
		WHERE id = $1
		RETURNING *`
	var row absenceRow
	err := ex.GetContext(ctx, &row, query,
		req.ID,
		string(req.Status),
		req.UpdatedAt.UTC(),
		null.TimeFromPtr(req.ReviewedAt),
		null.NewString(req.ReviewedBy, req.ReviewedBy != ""),
	)
	if err != nil {
		return absence.Request{}, trapErr(err, absence.ErrNotFound, "updating absence request")
	}
	return row.toRequest(), nil
}
