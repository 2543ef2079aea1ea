package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/school"
)

type schoolApi struct {
	svc      school.Service
	validate *validator.Validate
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc school.Service, validate *validator.Validate) {
	api := schoolApi{
		svc:      svc,
		validate: validate,
	}

	cg := g.Group("/classrooms", jwt)
	cg.POST("", api.createClassroom, adminMiddleware())
	cg.GET("", api.queryClassrooms)
	cg.GET("/:id", api.retrieveClassroom)
	cg.DELETE("/:id", api.destroyClassroom, adminMiddleware())

	og := g.Group("/courses", jwt)
	og.POST("", api.createCourse, adminMiddleware())
	og.GET("", api.queryCourses)
	og.GET("/:id", api.retrieveCourse)
	og.DELETE("/:id", api.destroyCourse, adminMiddleware())

	sg := g.Group("/subjects", jwt)
	sg.POST("", api.createSubject, adminMiddleware())
	sg.GET("", api.querySubjects)
	sg.GET("/:id", api.retrieveSubject)
	sg.DELETE("/:id", api.destroySubject, adminMiddleware())

	yg := g.Group("/syllabi", jwt)
	yg.POST("", api.createSyllabus, adminMiddleware())
	yg.GET("", api.querySyllabi)
	yg.GET("/:id", api.retrieveSyllabus)
	yg.DELETE("/:id", api.destroySyllabus, adminMiddleware())

	lg := g.Group("/lectures", jwt)
	lg.POST("", api.createLecture, adminMiddleware())
	lg.GET("", api.queryLectures)
	lg.DELETE("/:id", api.destroyLecture, adminMiddleware())
}

// Classrooms

func (api *schoolApi) createClassroom(ctx echo.Context) error {
	var data school.NewClassroom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassroom")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	room, err := api.svc.CreateClassroom(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating classroom")
	}
	return ctx.JSON(http.StatusCreated, room)
}

func (api *schoolApi) queryClassrooms(ctx echo.Context) error {
	rooms, err := api.svc.QueryClassrooms(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying classrooms")
	}
	if rooms == nil {
		rooms = []school.Classroom{}
	}
	return ctx.JSON(http.StatusOK, rooms)
}

func (api *schoolApi) retrieveClassroom(ctx echo.Context) error {
	room, err := api.svc.GetClassroom(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding classroom by ID")
	}
	return ctx.JSON(http.StatusOK, room)
}

func (api *schoolApi) destroyClassroom(ctx echo.Context) error {
	if err := api.svc.DeleteClassroom(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting classroom")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Courses

func (api *schoolApi) createCourse(ctx echo.Context) error {
	var data school.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	course, err := api.svc.CreateCourse(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, course)
}

func (api *schoolApi) queryCourses(ctx echo.Context) error {
	courses, err := api.svc.QueryCourses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []school.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *schoolApi) retrieveCourse(ctx echo.Context) error {
	course, err := api.svc.GetCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	return ctx.JSON(http.StatusOK, course)
}

func (api *schoolApi) destroyCourse(ctx echo.Context) error {
	if err := api.svc.DeleteCourse(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Subjects

func (api *schoolApi) createSubject(ctx echo.Context) error {
	var data school.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	subject, err := api.svc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, subject)
}

func (api *schoolApi) querySubjects(ctx echo.Context) error {
	subjects, err := api.svc.QuerySubjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []school.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *schoolApi) retrieveSubject(ctx echo.Context) error {
	subject, err := api.svc.GetSubject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding subject by ID")
	}
	return ctx.JSON(http.StatusOK, subject)
}

func (api *schoolApi) destroySubject(ctx echo.Context) error {
	if err := api.svc.DeleteSubject(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Syllabi

func (api *schoolApi) createSyllabus(ctx echo.Context) error {
	var data school.NewSyllabus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSyllabus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	syllabus, err := api.svc.CreateSyllabus(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating syllabus")
	}
	return ctx.JSON(http.StatusCreated, syllabus)
}

func (api *schoolApi) querySyllabi(ctx echo.Context) error {
	syllabi, err := api.svc.QuerySyllabi(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying syllabi")
	}
	if syllabi == nil {
		syllabi = []school.Syllabus{}
	}
	return ctx.JSON(http.StatusOK, syllabi)
}

func (api *schoolApi) retrieveSyllabus(ctx echo.Context) error {
	syllabus, err := api.svc.GetSyllabus(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding syllabus by ID")
	}
	return ctx.JSON(http.StatusOK, syllabus)
}

func (api *schoolApi) destroySyllabus(ctx echo.Context) error {
	if err := api.svc.DeleteSyllabus(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting syllabus")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Lectures

func (api *schoolApi) createLecture(ctx echo.Context) error {
	var data school.NewLecture
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLecture")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	lecture, err := api.svc.CreateLecture(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating lecture")
	}
	return ctx.JSON(http.StatusCreated, lecture)
}

func (api *schoolApi) queryLectures(ctx echo.Context) error {
	lectures, err := api.svc.QueryLectures(ctx.Request().Context(), ctx.QueryParam("syllabus_id"))
	if err != nil {
		return errors.Wrap(err, "querying lectures")
	}
	if lectures == nil {
		lectures = []school.Lecture{}
	}
	return ctx.JSON(http.StatusOK, lectures)
}

func (api *schoolApi) destroyLecture(ctx echo.Context) error {
	if err := api.svc.DeleteLecture(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting lecture")
	}
	return ctx.NoContent(http.StatusNoContent)
}
