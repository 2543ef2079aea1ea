package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/timekeeping"
	"github.com/trezcool/darasa/core/user"
)

type timekeepingApi struct {
	svc      timekeeping.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerTimekeepingAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc timekeeping.Service, usrSvc user.Service, validate *validator.Validate) {
	api := timekeepingApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	tg := g.Group("/timekeeping", jwt)
	tg.POST("", api.submit)
	tg.POST("/bulk", api.bulkSubmit, staffMiddleware())
	tg.GET("", api.query)
}

// Handlers

func (api *timekeepingApi) submit(ctx echo.Context) error {
	var data timekeeping.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rec, err := api.svc.Submit(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "recording attendance")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *timekeepingApi) bulkSubmit(ctx echo.Context) error {
	var data timekeeping.NewBulkRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBulkRecord")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	recs, err := api.svc.BulkSubmit(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "recording attendance in bulk")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *timekeepingApi) query(ctx echo.Context) error {
	filter := new(timekeeping.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []timekeeping.Record{})
	}

	// students may only see their own records
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !(actor.IsAdmin() || actor.IsTeacher()) {
		filter.UserID = actor.ID
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	recs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying attendance records")
	}
	if recs == nil {
		recs = []timekeeping.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}
