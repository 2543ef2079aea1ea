package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

type Classroom struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Building  string     `json:"building,omitempty"`
	Capacity  int        `json:"capacity,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

type Course struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"`
}

type Subject struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CourseID  string     `json:"course_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

type Syllabus struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CourseID  string     `json:"course_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

type Lecture struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	SyllabusID string     `json:"syllabus_id,omitempty"`
	Position   int        `json:"position"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"-"`
}

// NewClassroom contains information needed to create a new Classroom.
type NewClassroom struct {
	Name     string `json:"name" validate:"required"`
	Building string `json:"building"`
	Capacity int    `json:"capacity" validate:"omitempty,min=1"`
}

func (nc *NewClassroom) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Building = core.CleanString(nc.Building)
	return validate.Struct(nc)
}

type NewCourse struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

type NewSubject struct {
	Name     string `json:"name" validate:"required"`
	CourseID string `json:"course_id" validate:"omitempty,uuid4"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

type NewSyllabus struct {
	Name     string `json:"name" validate:"required"`
	CourseID string `json:"course_id" validate:"omitempty,uuid4"`
}

func (ns *NewSyllabus) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

type NewLecture struct {
	Name       string `json:"name" validate:"required"`
	SyllabusID string `json:"syllabus_id" validate:"omitempty,uuid4"`
	Position   int    `json:"position" validate:"omitempty,min=0"`
}

func (nl *NewLecture) Validate(validate *validator.Validate) error {
	nl.Name = core.CleanString(nl.Name)
	return validate.Struct(nl)
}
