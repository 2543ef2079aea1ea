package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/storage/database"
)

type schoolRepository struct {
	db *database.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *database.DB) school.Repository {
	return &schoolRepository{db: db}
}

type (
	classroomRow struct {
		ID        string      `db:"id"`
		Name      string      `db:"name"`
		Building  null.String `db:"building"`
		Capacity  null.Int    `db:"capacity"`
		CreatedAt time.Time   `db:"created_at"`
		UpdatedAt time.Time   `db:"updated_at"`
		DeletedAt null.Time   `db:"deleted_at"`
	}

	courseRow struct {
		ID          string      `db:"id"`
		Name        string      `db:"name"`
		Description null.String `db:"description"`
		CreatedAt   time.Time   `db:"created_at"`
		UpdatedAt   time.Time   `db:"updated_at"`
		DeletedAt   null.Time   `db:"deleted_at"`
	}

	subjectRow struct {
		ID        string      `db:"id"`
		Name      string      `db:"name"`
		CourseID  null.String `db:"course_id"`
		CreatedAt time.Time   `db:"created_at"`
		UpdatedAt time.Time   `db:"updated_at"`
		DeletedAt null.Time   `db:"deleted_at"`
	}

	syllabusRow struct {
		ID        string      `db:"id"`
		Name      string      `db:"name"`
		CourseID  null.String `db:"course_id"`
		CreatedAt time.Time   `db:"created_at"`
		UpdatedAt time.Time   `db:"updated_at"`
		DeletedAt null.Time   `db:"deleted_at"`
	}

	lectureRow struct {
		ID         string      `db:"id"`
		Name       string      `db:"name"`
		SyllabusID null.String `db:"syllabus_id"`
		Position   int         `db:"position"`
		CreatedAt  time.Time   `db:"created_at"`
		UpdatedAt  time.Time   `db:"updated_at"`
		DeletedAt  null.Time   `db:"deleted_at"`
	}
)

func (repo *schoolRepository) CreateClassroom(ctx context.Context, room school.Classroom, exec ...core.DBExecutor) (school.Classroom, error) {
	ex := getExec(repo.db, exec)

	const query = `
		INSERT INTO classroom (id, name, building, capacity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := ex.ExecContext(ctx, query,
		room.ID,
		room.Name,
		null.NewString(room.Building, room.Building != ""),
		null.NewInt(room.Capacity, room.Capacity != 0),
		room.CreatedAt.UTC(),
		room.UpdatedAt.UTC(),
	)
	if err != nil {
		return school.Classroom{}, trapErr(err, school.ErrNotFound, "creating classroom")
	}
	return room, nil
}

func (repo *schoolRepository) GetClassroom(ctx context.Context, id string, exec ...core.DBExecutor) (school.Classroom, error) {
	ex := getExec(repo.db, exec)

	var row classroomRow
	const query = `SELECT * FROM classroom WHERE id = $1 AND deleted_at IS NULL`
	if err := ex.GetContext(ctx, &row, query, id); err != nil {
		return school.Classroom{}, trapErr(err, school.ErrNotFound, "getting classroom")
	}
	return school.Classroom{
		ID:        row.ID,
		Name:      row.Name,
		Building:  row.Building.String,
		Capacity:  row.Capacity.Int,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (repo *schoolRepository) QueryClassrooms(ctx context.Context, exec ...core.DBExecutor) ([]school.Classroom, error) {
	ex := getExec(repo.db, exec)

	var rows []classroomRow
	const query = `SELECT * FROM classroom WHERE deleted_at IS NULL ORDER BY name`
	if err := ex.SelectContext(ctx, &rows, query); err != nil {
		return nil, trapErr(err, school.ErrNotFound, "querying classrooms")
	}

	rooms := make([]school.Classroom, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, school.Classroom{
			ID:        row.ID,
			Name:      row.Name,
			Building:  row.Building.String,
			Capacity:  row.Capacity.Int,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return rooms, nil
}

func (repo *schoolRepository) DeleteClassroom(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error {
	return repo.softDelete(ctx, "classroom", id, at, exec)
}

func (repo *schoolRepository) CreateCourse(ctx context.Context, course school.Course, exec ...core.DBExecutor) (school.Course, error) {
	ex := getExec(repo.db, exec)

	const query = `
		INSERT INTO course (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := ex.ExecContext(ctx, query,
		course.ID,
		course.Name,
		null.NewString(course.Description, course.Description != ""),
		course.CreatedAt.UTC(),
		course.UpdatedAt.UTC(),
	)
	if err != nil {
		return school.Course{}, trapErr(err, school.ErrNotFound, "creating course")
	}
	return course, nil
}

func (repo *schoolRepository) GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (school.Course, error) {
	ex := getExec(repo.db, exec)

	var row courseRow
	const query = `SELECT * FROM course WHERE id = $1 AND deleted_at IS NULL`
	if err := ex.GetContext(ctx, &row, query, id); err != nil {
		return school.Course{}, trapErr(err, school.ErrNotFound, "getting course")
	}
	return school.Course{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description.String,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func (repo *schoolRepository) QueryCourses(ctx context.Context, exec ...core.DBExecutor) ([]school.Course, error) {
	ex := getExec(repo.db, exec)

	var rows []courseRow
	const query = `SELECT * FROM course WHERE deleted_at IS NULL ORDER BY name`
	if err := ex.SelectContext(ctx, &rows, query); err != nil {
		return nil, trapErr(err, school.ErrNotFound, "querying courses")
	}

	courses := make([]school.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, school.Course{
			ID:          row.ID,
			Name:        row.Name,
			Description: row.Description.String,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
		})
	}
	return courses, nil
}

func (repo *schoolRepository) DeleteCourse(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error {
	return repo.softDelete(ctx, "course", id, at, exec)
}

func (repo *schoolRepository) CreateSubject(ctx context.Context, subject school.Subject, exec ...core.DBExecutor) (school.Subject, error) {
	ex := getExec(repo.db, exec)

	const query = `
		INSERT INTO subject (id, name, course_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := ex.ExecContext(ctx, query,
		subject.ID,
		subject.Name,
		null.NewString(subject.CourseID, subject.CourseID != ""),
		subject.CreatedAt.UTC(),
		subject.UpdatedAt.UTC(),
	)
	if err != nil {
		return school.Subject{}, trapErr(err, school.ErrNotFound, "creating subject")
	}
	return subject, nil
}

func (repo *schoolRepository) GetSubject(ctx context.Context, id string, exec ...core.DBExecutor) (school.Subject, error) {
	ex := getExec(repo.db, exec)

	var row subjectRow
	const query = `SELECT * FROM subject WHERE id = $1 AND deleted_at IS NULL`
	if err := ex.GetContext(ctx, &row, query, id); err != nil {
		return school.Subject{}, trapErr(err, school.ErrNotFound, "getting subject")
	}
	return school.Subject{
		ID:        row.ID,
		Name:      row.Name,
		CourseID:  row.CourseID.String,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (repo *schoolRepository) QuerySubjects(ctx context.Context, exec ...core.DBExecutor) ([]school.Subject, error) {
	ex := getExec(repo.db, exec)

	var rows []subjectRow
	const query = `SELECT * FROM subject WHERE deleted_at IS NULL ORDER BY name`
	if err := ex.SelectContext(ctx, &rows, query); err != nil {
		return nil, trapErr(err, school.ErrNotFound, "querying subjects")
	}

	subjects := make([]school.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, school.Subject{
			ID:        row.ID,
			Name:      row.Name,
			CourseID:  row.CourseID.String,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return subjects, nil
}

func (repo *schoolRepository) DeleteSubject(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error {
	return repo.softDelete(ctx, "subject", id, at, exec)
}

func (repo *schoolRepository) CreateSyllabus(ctx context.Context, syllabus school.Syllabus, exec ...core.DBExecutor) (school.Syllabus, error) {
	ex := getExec(repo.db, exec)

	const query = `
		INSERT INTO syllabus (id, name, course_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := ex.ExecContext(ctx, query,
		syllabus.ID,
		syllabus.Name,
		null.NewString(syllabus.CourseID, syllabus.CourseID != ""),
		syllabus.CreatedAt.UTC(),
		syllabus.UpdatedAt.UTC(),
	)
	if err != nil {
		return school.Syllabus{}, trapErr(err, school.ErrNotFound, "creating syllabus")
	}
	return syllabus, nil
}

func (repo *schoolRepository) GetSyllabus(ctx context.Context, id string, exec ...core.DBExecutor) (school.Syllabus, error) {
	ex := getExec(repo.db, exec)

	var row syllabusRow
	const query = `SELECT * FROM syllabus WHERE id = $1 AND deleted_at IS NULL`
	if err := ex.GetContext(ctx, &row, query, id); err != nil {
		return school.Syllabus{}, trapErr(err, school.ErrNotFound, "getting syllabus")
	}
	return school.Syllabus{
		ID:        row.ID,
		Name:      row.Name,
		CourseID:  row.CourseID.String,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (repo *schoolRepository) QuerySyllabi(ctx context.Context, exec ...core.DBExecutor) ([]school.Syllabus, error) {
	ex := getExec(repo.db, exec)

	var rows []syllabusRow
	const query = `SELECT * FROM syllabus WHERE deleted_at IS NULL ORDER BY name`
	if err := ex.SelectContext(ctx, &rows, query); err != nil {
		return nil, trapErr(err, school.ErrNotFound, "querying syllabi")
	}

	syllabi := make([]school.Syllabus, 0, len(rows))
	for _, row := range rows {
		syllabi = append(syllabi, school.Syllabus{
			ID:        row.ID,
			Name:      row.Name,
			CourseID:  row.CourseID.String,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return syllabi, nil
}

func (repo *schoolRepository) DeleteSyllabus(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error {
	return repo.softDelete(ctx, "syllabus", id, at, exec)
}

func (repo *schoolRepository) CreateLecture(ctx context.Context, lecture school.Lecture, exec ...core.DBExecutor) (school.Lecture, error) {
	ex := getExec(repo.db, exec)

	const query = `
		INSERT INTO lecture (id, name, syllabus_id, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := ex.ExecContext(ctx, query,
		lecture.ID,
		lecture.Name,
		null.NewString(lecture.SyllabusID, lecture.SyllabusID != ""),
		lecture.Position,
		lecture.CreatedAt.UTC(),
		lecture.UpdatedAt.UTC(),
	)
	if err != nil {
		return school.Lecture{}, trapErr(err, school.ErrNotFound, "creating lecture")
	}
	return lecture, nil
}

func (repo *schoolRepository) GetLecturesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]school.Lecture, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ex := getExec(repo.db, exec)

	query, args, err := sqlx.In(`SELECT * FROM lecture WHERE id IN (?) AND deleted_at IS NULL`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "binding lectures query")
	}

	var rows []lectureRow
	if err = ex.SelectContext(ctx, &rows, ex.Rebind(query), args...); err != nil {
		return nil, trapErr(err, school.ErrNotFound, "getting lectures")
	}
	return toLectures(rows), nil
}

func (repo *schoolRepository) QueryLectures(ctx context.Context, syllabusID string, exec ...core.DBExecutor) ([]school.Lecture, error) {
	ex := getExec(repo.db, exec)

	query := `SELECT * FROM lecture WHERE deleted_at IS NULL`
	var args []interface{}
	if syllabusID != "" {
		query += ` AND syllabus_id = $1`
		args = append(args, syllabusID)
	}
	query += ` ORDER BY position`

	var rows []lectureRow
	if err := ex.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, trapErr(err, school.ErrNotFound, "querying lectures")
	}
	return toLectures(rows), nil
}

func (repo *schoolRepository) DeleteLecture(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error {
	return repo.softDelete(ctx, "lecture", id, at, exec)
}

func toLectures(rows []lectureRow) []school.Lecture {
	lectures := make([]school.Lecture, 0, len(rows))
	for _, row := range rows {
		lectures = append(lectures, school.Lecture{
			ID:         row.ID,
			Name:       row.Name,
			SyllabusID: row.SyllabusID.String,
			Position:   row.Position,
			CreatedAt:  row.CreatedAt,
			UpdatedAt:  row.UpdatedAt,
		})
	}
	return lectures
}

// softDelete tombstones one catalog row. The table name comes from this
// package's own call sites, never from user input.
func (repo *schoolRepository) softDelete(ctx context.Context, table, id string, at time.Time, exec []core.DBExecutor) error {
	ex := getExec(repo.db, exec)

	query := `UPDATE ` + table + ` SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	res, err := ex.ExecContext(ctx, query, id, at.UTC())
	if err != nil {
		return trapErr(err, school.ErrNotFound, "deleting "+table)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.ErrNotFound
	}
	return nil
}
