package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
)

type schoolRepository struct {
	db *schoolTables
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db.school}
}

func (repo *schoolRepository) CreateClassroom(ctx context.Context, room school.Classroom, exec ...core.DBExecutor) (school.Classroom, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	repo.db.classrooms[room.ID] = &room
	return room, nil
}

func (repo *schoolRepository) GetClassroom(ctx context.Context, id string, exec ...core.DBExecutor) (school.Classroom, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if room, ok := repo.db.classrooms[id]; ok && room.DeletedAt == nil {
		return *room, nil
	}
	return school.Classroom{}, school.ErrNotFound
}

func (repo *schoolRepository) QueryClassrooms(ctx context.Context, exec ...core.DBExecutor) ([]school.Classroom, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rooms := make([]school.Classroom, 0, len(repo.db.classrooms))
	for _, room := range repo.db.classrooms {
		if room.DeletedAt == nil {
			rooms = append(rooms, *room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms, nil
}

func (repo *schoolRepository) DeleteClassroom(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	room, ok := repo.db.classrooms[id]
	if !ok || room.DeletedAt != nil {
		return school.ErrNotFound
	}
	room.DeletedAt = &at
	return nil
}

func (repo *schoolRepository) CreateCourse(ctx context.Context, course school.Course, exec ...core.DBExecutor) (school.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if course.ID == "" {
		course.ID = uuid.New().String()
	}
	repo.db.courses[course.ID] = &course
	return course, nil
}

func (repo *schoolRepository) GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (school.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if course, ok := repo.db.courses[id]; ok && course.DeletedAt == nil {
		return *course, nil
	}
	return school.Course{}, school.ErrNotFound
}

func (repo *schoolRepository) QueryCourses(ctx context.Context, exec ...core.DBExecutor) ([]school.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]school.Course, 0, len(repo.db.courses))
	for _, course := range repo.db.courses {
		if course.DeletedAt == nil {
			courses = append(courses, *course)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Name < courses[j].Name })
	return courses, nil
}

func (repo *schoolRepository) DeleteCourse(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	course, ok := repo.db.courses[id]
	if !ok || course.DeletedAt != nil {
		return school.ErrNotFound
	}
	course.DeletedAt = &at
	return nil
}

func (repo *schoolRepository) CreateSubject(ctx context.Context, subject school.Subject, exec ...core.DBExecutor) (school.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if subject.ID == "" {
		subject.ID = uuid.New().String()
	}
	repo.db.subjects[subject.ID] = &subject
	return subject, nil
}

func (repo *schoolRepository) GetSubject(ctx context.Context, id string, exec ...core.DBExecutor) (school.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if subject, ok := repo.db.subjects[id]; ok && subject.DeletedAt == nil {
		return *subject, nil
	}
	return school.Subject{}, school.ErrNotFound
}

func (repo *schoolRepository) QuerySubjects(ctx context.Context, exec ...core.DBExecutor) ([]school.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subjects := make([]school.Subject, 0, len(repo.db.subjects))
	for _, subject := range repo.db.subjects {
		if subject.DeletedAt == nil {
			subjects = append(subjects, *subject)
		}
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

func (repo *schoolRepository) DeleteSubject(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	subject, ok := repo.db.subjects[id]
	if !ok || subject.DeletedAt != nil {
		return school.ErrNotFound
	}
	subject.DeletedAt = &at
	return nil
}

func (repo *schoolRepository) CreateSyllabus(ctx context.Context, syllabus school.Syllabus, exec ...core.DBExecutor) (school.Syllabus, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if syllabus.ID == "" {
		syllabus.ID = uuid.New().String()
	}
	repo.db.syllabi[syllabus.ID] = &syllabus
	return syllabus, nil
}

func (repo *schoolRepository) GetSyllabus(ctx context.Context, id string, exec ...core.DBExecutor) (school.Syllabus, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if syllabus, ok := repo.db.syllabi[id]; ok && syllabus.DeletedAt == nil {
		return *syllabus, nil
	}
	return school.Syllabus{}, school.ErrNotFound
}

func (repo *schoolRepository) QuerySyllabi(ctx context.Context, exec ...core.DBExecutor) ([]school.Syllabus, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	syllabi := make([]school.Syllabus, 0, len(repo.db.syllabi))
	for _, syllabus := range repo.db.syllabi {
		if syllabus.DeletedAt == nil {
			syllabi = append(syllabi, *syllabus)
		}
	}
	sort.Slice(syllabi, func(i, j int) bool { return syllabi[i].Name < syllabi[j].Name })
	return syllabi, nil
}

func (repo *schoolRepository) DeleteSyllabus(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	syllabus, ok := repo.db.syllabi[id]
	if !ok || syllabus.DeletedAt != nil {
		return school.ErrNotFound
	}
	syllabus.DeletedAt = &at
	return nil
}

func (repo *schoolRepository) CreateLecture(ctx context.Context, lecture school.Lecture, exec ...core.DBExecutor) (school.Lecture, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if lecture.ID == "" {
		lecture.ID = uuid.New().String()
	}
	repo.db.lectures[lecture.ID] = &lecture
	return lecture, nil
}

func (repo *schoolRepository) GetLecturesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]school.Lecture, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	lectures := make([]school.Lecture, 0, len(ids))
	for _, id := range ids {
		if lecture, ok := repo.db.lectures[id]; ok && lecture.DeletedAt == nil {
			lectures = append(lectures, *lecture)
		}
	}
	return lectures, nil
}

func (repo *schoolRepository) QueryLectures(ctx context.Context, syllabusID string, exec ...core.DBExecutor) ([]school.Lecture, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var lectures []school.Lecture
	for _, lecture := range repo.db.lectures {
		if lecture.DeletedAt != nil {
			continue
		}
		if syllabusID != "" && lecture.SyllabusID != syllabusID {
			continue
		}
		lectures = append(lectures, *lecture)
	}
	sort.Slice(lectures, func(i, j int) bool { return lectures[i].Position < lectures[j].Position })
	return lectures, nil
}

func (repo *schoolRepository) DeleteLecture(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	lecture, ok := repo.db.lectures[id]
	if !ok || lecture.DeletedAt != nil {
		return school.ErrNotFound
	}
	lecture.DeletedAt = &at
	return nil
}
