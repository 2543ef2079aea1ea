package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/lesson"
	"github.com/trezcool/darasa/storage/database"
)

type lessonRepository struct {
	db *database.DB
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *database.DB) lesson.Repository {
	return &lessonRepository{db: db}
}

type lessonRow struct {
	ID          string         `db:"id"`
	Code        string         `db:"code"`
	Name        string         `db:"name"`
	ClassroomID string         `db:"classroom_id"`
	CourseID    string         `db:"course_id"`
	SubjectID   null.String    `db:"subject_id"`
	TeacherID   string         `db:"teacher_id"`
	StudentIDs  pq.StringArray `db:"student_ids"`
	Date        time.Time      `db:"date"`
	StartTime   string         `db:"start_time"`
	EndTime     string         `db:"end_time"`
	Room        null.String    `db:"room"`
	MeetingURL  null.String    `db:"meeting_url"`
	SyllabusID  null.String    `db:"syllabus_id"`
	LectureIDs  pq.StringArray `db:"lecture_ids"`
	Documents   pq.StringArray `db:"documents"`
	Recordings  pq.StringArray `db:"recordings"`
	CreatedAt   time.Time      `db:"created_at"`
	CreatedBy   null.String    `db:"created_by"`
	UpdatedAt   time.Time      `db:"updated_at"`
	UpdatedBy   null.String    `db:"updated_by"`
	DeletedAt   null.Time      `db:"deleted_at"`
	DeletedBy   null.String    `db:"deleted_by"`
}

func (r lessonRow) toLesson() lesson.Lesson {
	return lesson.Lesson{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		ClassroomID: r.ClassroomID,
		CourseID:    r.CourseID,
		SubjectID:   r.SubjectID.String,
		TeacherID:   r.TeacherID,
		StudentIDs:  r.StudentIDs,
		Date:        r.Date.UTC(),
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Room:        r.Room.String,
		MeetingURL:  r.MeetingURL.String,
		SyllabusID:  r.SyllabusID.String,
		LectureIDs:  r.LectureIDs,
		Documents:   r.Documents,
		Recordings:  r.Recordings,
		CreatedAt:   r.CreatedAt,
		CreatedBy:   r.CreatedBy.String,
		UpdatedAt:   r.UpdatedAt,
		UpdatedBy:   r.UpdatedBy.String,
		DeletedAt:   r.DeletedAt.Ptr(),
		DeletedBy:   r.DeletedBy.String,
	}
}

func toLessons(rows []lessonRow) []lesson.Lesson {
	lessons := make([]lesson.Lesson, 0, len(rows))
	for _, r := range rows {
		lessons = append(lessons, r.toLesson())
	}
	return lessons
}

const lessonColumns = `id, code, name, classroom_id, course_id, subject_id, teacher_id, student_ids,
	date, start_time, end_time, room, meeting_url, syllabus_id, lecture_ids, documents, recordings,
	created_at, created_by, updated_at, updated_by, deleted_at, deleted_by`

func (repo *lessonRepository) CreateLessons(ctx context.Context, lessons []lesson.Lesson, exec ...core.DBExecutor) ([]lesson.Lesson, error) {
	ex := getExec(repo.db, exec)

	const query = `
		INSERT INTO lesson (
			id, code, name, classroom_id, course_id, subject_id, teacher_id, student_ids,
			date, start_time, end_time, room, meeting_url, syllabus_id, lecture_ids,
			documents, recordings, created_at, created_by, updated_at, updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	for _, lsn := range lessons {
		_, err := ex.ExecContext(ctx, query,
			lsn.ID,
			lsn.Code,
			lsn.Name,
			lsn.ClassroomID,
			lsn.CourseID,
			null.NewString(lsn.SubjectID, lsn.SubjectID != ""),
			lsn.TeacherID,
			pq.StringArray(lsn.StudentIDs),
			lsn.Date,
			lsn.StartTime,
			lsn.EndTime,
			null.NewString(lsn.Room, lsn.Room != ""),
			null.NewString(lsn.MeetingURL, lsn.MeetingURL != ""),
			null.NewString(lsn.SyllabusID, lsn.SyllabusID != ""),
			pq.StringArray(lsn.LectureIDs),
			pq.StringArray(lsn.Documents),
			pq.StringArray(lsn.Recordings),
			lsn.CreatedAt.UTC(),
			null.NewString(lsn.CreatedBy, lsn.CreatedBy != ""),
			lsn.UpdatedAt.UTC(),
			null.NewString(lsn.UpdatedBy, lsn.UpdatedBy != ""),
		)
		if err != nil {
			return nil, trapErr(err, lesson.ErrNotFound, "inserting lesson "+lsn.Code)
		}
	}
	return lessons, nil
}

func (repo *lessonRepository) GetLesson(ctx context.Context, id string, exec ...core.DBExecutor) (lesson.Lesson, error) {
	ex := getExec(repo.db, exec)

	var row lessonRow
	query := `SELECT ` + lessonColumns + ` FROM lesson WHERE id = $1 AND deleted_at IS NULL`
	if err := ex.GetContext(ctx, &row, query, id); err != nil {
		return lesson.Lesson{}, trapErr(err, lesson.ErrNotFound, "getting lesson")
	}
	return row.toLesson(), nil
}

func (repo *lessonRepository) QueryLessons(ctx context.Context, filter *lesson.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]lesson.Lesson, error) {
	ex := getExec(repo.db, exec)

	query := `SELECT ` + lessonColumns + ` FROM lesson`
	conds := []string{"deleted_at IS NULL"}
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.TeacherID != "" {
			conds = append(conds, "teacher_id = "+arg(filter.TeacherID))
		}
		if filter.ClassroomID != "" {
			conds = append(conds, "classroom_id = "+arg(filter.ClassroomID))
		}
		if filter.CourseID != "" {
			conds = append(conds, "course_id = "+arg(filter.CourseID))
		}
		if filter.StudentID != "" {
			conds = append(conds, arg(filter.StudentID)+" = ANY(student_ids)")
		}
		if !filter.DateFrom.IsZero() {
			conds = append(conds, "date >= "+arg(filter.DateFrom))
		}
		if !filter.DateTo.IsZero() {
			conds = append(conds, "date <= "+arg(filter.DateTo))
		}
	}
	query += " WHERE " + strings.Join(conds, " AND ")
	query += orderBy(ordering, "date, start_time, code")

	var rows []lessonRow
	if err := ex.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, trapErr(err, lesson.ErrNotFound, "querying lessons")
	}
	return toLessons(rows), nil
}

func (repo *lessonRepository) QueryOverlapping(ctx context.Context, date time.Time, startTime, endTime, excludeID string, exec ...core.DBExecutor) ([]lesson.Lesson, error) {
	ex := getExec(repo.db, exec)

	// touching boundaries are not overlaps; HH:MM text compares correctly
	query := `
		SELECT ` + lessonColumns + ` FROM lesson
		WHERE deleted_at IS NULL AND date = $1 AND start_time < $2 AND end_time > $3`
	args := []interface{}{date, endTime, startTime}
	if excludeID != "" {
		query += ` AND id <> $4`
		args = append(args, excludeID)
	}

	var rows []lessonRow
	if err := ex.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, trapErr(err, lesson.ErrNotFound, "querying overlapping lessons")
	}
	return toLessons(rows), nil
}

func (repo *lessonRepository) MaxCodeSeq(ctx context.Context, prefix string, year int, exec ...core.DBExecutor) (int, error) {
	ex := getExec(repo.db, exec)

	// deleted lessons keep their codes, so no deleted_at filter here
	var seq int
	const query = `SELECT COALESCE(MAX(right(code, 4)::int), 0) FROM lesson WHERE code LIKE $1`
	if err := ex.GetContext(ctx, &seq, query, fmt.Sprintf("%s%d%%", prefix, year)); err != nil {
		return 0, trapErr(err, lesson.ErrNotFound, "getting max lesson code sequence")
	}
	return seq, nil
}

func (repo *lessonRepository) UpdateLesson(ctx context.Context, lsn lesson.Lesson, exec ...core.DBExecutor) (lesson.Lesson, error) {
	ex := getExec(repo.db, exec)

	const query = `
		UPDATE lesson SET
			name = $2, classroom_id = $3, course_id = $4, subject_id = $5, teacher_id = $6,
			student_ids = $7, date = $8, start_time = $9, end_time = $10, room = $11,
			meeting_url = $12, syllabus_id = $13, lecture_ids = $14, documents = $15,
			recordings = $16, updated_at = $17, updated_by = $18
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + lessonColumns
	var row lessonRow
	err := ex.GetContext(ctx, &row, query,
		lsn.ID,
		lsn.Name,
		lsn.ClassroomID,
		lsn.CourseID,
		null.NewString(lsn.SubjectID, lsn.SubjectID != ""),
		lsn.TeacherID,
		pq.StringArray(lsn.StudentIDs),
		lsn.Date,
		lsn.StartTime,
		lsn.EndTime,
		null.NewString(lsn.Room, lsn.Room != ""),
		null.NewString(lsn.MeetingURL, lsn.MeetingURL != ""),
		null.NewString(lsn.SyllabusID, lsn.SyllabusID != ""),
		pq.StringArray(lsn.LectureIDs),
		pq.StringArray(lsn.Documents),
		pq.StringArray(lsn.Recordings),
		lsn.UpdatedAt.UTC(),
		null.NewString(lsn.UpdatedBy, lsn.UpdatedBy != ""),
	)
	if err != nil {
		return lesson.Lesson{}, trapErr(err, lesson.ErrNotFound, "updating lesson")
	}
	return row.toLesson(), nil
}

func (repo *lessonRepository) SoftDeleteLessons(ctx context.Context, ids []string, by string, at time.Time, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	ex := getExec(repo.db, exec)

	query, args, err := sqlx.In(
		`UPDATE lesson SET deleted_at = ?, deleted_by = ? WHERE id IN (?) AND deleted_at IS NULL`,
		at.UTC(), by, ids,
	)
	if err != nil {
		return errors.Wrap(err, "binding soft-delete query")
	}

	res, err := ex.ExecContext(ctx, ex.Rebind(query), args...)
	if err != nil {
		return trapErr(err, lesson.ErrNotFound, "soft-deleting lessons")
	}
	if n, err := res.RowsAffected(); err == nil && n != int64(len(ids)) {
		return lesson.ErrNotFound
	}
	return nil
}
