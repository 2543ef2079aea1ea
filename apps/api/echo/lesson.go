package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/lesson"
	"github.com/trezcool/darasa/core/user"
)

type lessonApi struct {
	svc      lesson.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerLessonAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc lesson.Service, usrSvc user.Service, validate *validator.Validate) {
	api := lessonApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	lg := g.Group("/lessons", jwt)
	lg.POST("", api.createBatch, staffMiddleware())
	lg.GET("", api.query)
	lg.DELETE("", api.destroyMultiple, staffMiddleware())
	lg.GET("/:id", api.retrieve)
	lg.PUT("/:id", api.update, staffMiddleware())
	lg.DELETE("/:id", api.destroy, staffMiddleware())
}

// Handlers

func (api *lessonApi) createBatch(ctx echo.Context) error {
	var data lesson.NewLessonBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLessonBatch")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	lessons, err := api.svc.CreateBatch(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating lessons")
	}
	return ctx.JSON(http.StatusCreated, lessons)
}

func (api *lessonApi) query(ctx echo.Context) error {
	filter := new(lesson.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	lessons, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying lessons")
	}
	if lessons == nil {
		lessons = []lesson.Lesson{}
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *lessonApi) retrieve(ctx echo.Context) error {
	lsn, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding lesson by ID")
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *lessonApi) update(ctx echo.Context) error {
	var data lesson.UpdateLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	lsn, err := api.svc.Update(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *lessonApi) destroy(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *lessonApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), actor, query.IDs...); err != nil {
		return errors.Wrap(err, "deleting lessons")
	}
	return ctx.NoContent(http.StatusNoContent)
}
