package school

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var ErrNotFound = errors.New("record not found")

type (
	Repository interface {
		CreateClassroom(ctx context.Context, room Classroom, exec ...core.DBExecutor) (Classroom, error)
		GetClassroom(ctx context.Context, id string, exec ...core.DBExecutor) (Classroom, error)
		QueryClassrooms(ctx context.Context, exec ...core.DBExecutor) ([]Classroom, error)
		DeleteClassroom(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error

		CreateCourse(ctx context.Context, course Course, exec ...core.DBExecutor) (Course, error)
		GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (Course, error)
		QueryCourses(ctx context.Context, exec ...core.DBExecutor) ([]Course, error)
		DeleteCourse(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error

		CreateSubject(ctx context.Context, subject Subject, exec ...core.DBExecutor) (Subject, error)
		GetSubject(ctx context.Context, id string, exec ...core.DBExecutor) (Subject, error)
		QuerySubjects(ctx context.Context, exec ...core.DBExecutor) ([]Subject, error)
		DeleteSubject(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error

		CreateSyllabus(ctx context.Context, syllabus Syllabus, exec ...core.DBExecutor) (Syllabus, error)
		GetSyllabus(ctx context.Context, id string, exec ...core.DBExecutor) (Syllabus, error)
		QuerySyllabi(ctx context.Context, exec ...core.DBExecutor) ([]Syllabus, error)
		DeleteSyllabus(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error

		CreateLecture(ctx context.Context, lecture Lecture, exec ...core.DBExecutor) (Lecture, error)
		// GetLecturesByID returns the lectures found for the given IDs; missing IDs
		// are simply absent from the result.
		GetLecturesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]Lecture, error)
		QueryLectures(ctx context.Context, syllabusID string, exec ...core.DBExecutor) ([]Lecture, error)
		DeleteLecture(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error
	}

	Service interface {
		CreateClassroom(ctx context.Context, nc NewClassroom) (Classroom, error)
		GetClassroom(ctx context.Context, id string) (Classroom, error)
		QueryClassrooms(ctx context.Context) ([]Classroom, error)
		DeleteClassroom(ctx context.Context, id string) error

		CreateCourse(ctx context.Context, nc NewCourse) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		QueryCourses(ctx context.Context) ([]Course, error)
		DeleteCourse(ctx context.Context, id string) error

		CreateSubject(ctx context.Context, ns NewSubject) (Subject, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		QuerySubjects(ctx context.Context) ([]Subject, error)
		DeleteSubject(ctx context.Context, id string) error

		CreateSyllabus(ctx context.Context, ns NewSyllabus) (Syllabus, error)
		GetSyllabus(ctx context.Context, id string) (Syllabus, error)
		QuerySyllabi(ctx context.Context) ([]Syllabus, error)
		DeleteSyllabus(ctx context.Context, id string) error

		CreateLecture(ctx context.Context, nl NewLecture) (Lecture, error)
		QueryLectures(ctx context.Context, syllabusID string) ([]Lecture, error)
		DeleteLecture(ctx context.Context, id string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CreateClassroom(ctx context.Context, nc NewClassroom) (Classroom, error) {
	now := time.Now().UTC()
	return svc.repo.CreateClassroom(ctx, Classroom{
		Name:      nc.Name,
		Building:  nc.Building,
		Capacity:  nc.Capacity,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) GetClassroom(ctx context.Context, id string) (Classroom, error) {
	return svc.repo.GetClassroom(ctx, id)
}

func (svc *service) QueryClassrooms(ctx context.Context) ([]Classroom, error) {
	return svc.repo.QueryClassrooms(ctx)
}

func (svc *service) DeleteClassroom(ctx context.Context, id string) error {
	return svc.repo.DeleteClassroom(ctx, id, time.Now().UTC())
}

func (svc *service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	return svc.repo.CreateCourse(ctx, Course{
		Name:        nc.Name,
		Description: nc.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *service) GetCourse(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *service) QueryCourses(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryCourses(ctx)
}

func (svc *service) DeleteCourse(ctx context.Context, id string) error {
	return svc.repo.DeleteCourse(ctx, id, time.Now().UTC())
}

func (svc *service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	if ns.CourseID != "" {
		if _, err := svc.repo.GetCourse(ctx, ns.CourseID); err != nil {
			if errors.Cause(err) == ErrNotFound {
				return Subject{}, core.NewNotFoundError("course", ns.CourseID)
			}
			return Subject{}, err
		}
	}
	now := time.Now().UTC()
	return svc.repo.CreateSubject(ctx, Subject{
		Name:      ns.Name,
		CourseID:  ns.CourseID,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) GetSubject(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *service) QuerySubjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx)
}

func (svc *service) DeleteSubject(ctx context.Context, id string) error {
	return svc.repo.DeleteSubject(ctx, id, time.Now().UTC())
}

func (svc *service) CreateSyllabus(ctx context.Context, ns NewSyllabus) (Syllabus, error) {
	if ns.CourseID != "" {
		if _, err := svc.repo.GetCourse(ctx, ns.CourseID); err != nil {
			if errors.Cause(err) == ErrNotFound {
				return Syllabus{}, core.NewNotFoundError("course", ns.CourseID)
			}
			return Syllabus{}, err
		}
	}
	now := time.Now().UTC()
	return svc.repo.CreateSyllabus(ctx, Syllabus{
		Name:      ns.Name,
		CourseID:  ns.CourseID,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) GetSyllabus(ctx context.Context, id string) (Syllabus, error) {
	return svc.repo.GetSyllabus(ctx, id)
}

func (svc *service) QuerySyllabi(ctx context.Context) ([]Syllabus, error) {
	return svc.repo.QuerySyllabi(ctx)
}

func (svc *service) DeleteSyllabus(ctx context.Context, id string) error {
	return svc.repo.DeleteSyllabus(ctx, id, time.Now().UTC())
}

func (svc *service) CreateLecture(ctx context.Context, nl NewLecture) (Lecture, error) {
	if nl.SyllabusID != "" {
		if _, err := svc.repo.GetSyllabus(ctx, nl.SyllabusID); err != nil {
			if errors.Cause(err) == ErrNotFound {
				return Lecture{}, core.NewNotFoundError("syllabus", nl.SyllabusID)
			}
			return Lecture{}, err
		}
	}
	now := time.Now().UTC()
	return svc.repo.CreateLecture(ctx, Lecture{
		Name:       nl.Name,
		SyllabusID: nl.SyllabusID,
		Position:   nl.Position,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (svc *service) QueryLectures(ctx context.Context, syllabusID string) ([]Lecture, error) {
	return svc.repo.QueryLectures(ctx, syllabusID)
}

func (svc *service) DeleteLecture(ctx context.Context, id string) error {
	return svc.repo.DeleteLecture(ctx, id, time.Now().UTC())
}
