package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/absence"
	"github.com/trezcool/darasa/core/user"
)

type absenceApi struct {
	svc      absence.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerAbsenceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc absence.Service, usrSvc user.Service, validate *validator.Validate) {
	api := absenceApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	ag := g.Group("/absence-requests", jwt)
	ag.POST("", api.submit)
	ag.GET("", api.query, staffMiddleware())
	ag.GET("/:id", api.retrieve)
	ag.POST("/:id/approve", api.approve, staffMiddleware())
	ag.POST("/:id/unapprove", api.unapprove, staffMiddleware())
}

// Handlers

func (api *absenceApi) submit(ctx echo.Context) error {
	var data absence.NewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	req, err := api.svc.Submit(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "submitting absence request")
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *absenceApi) query(ctx echo.Context) error {
	filter := new(absence.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []absence.Request{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	reqs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying absence requests")
	}
	if reqs == nil {
		reqs = []absence.Request{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *absenceApi) retrieve(ctx echo.Context) error {
	req, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding absence request by ID")
	}

	// students may only see their own requests
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !(actor.IsAdmin() || actor.IsTeacher() || req.UserID == actor.ID) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *absenceApi) approve(ctx echo.Context) error {
	return api.review(ctx, api.svc.Approve)
}

func (api *absenceApi) unapprove(ctx echo.Context) error {
	return api.review(ctx, api.svc.Unapprove)
}

func (api *absenceApi) review(
	ctx echo.Context,
	fn func(ctx0 context.Context, reviewer user.User, id string) (absence.Request, error),
) error {
	reviewer, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	req, err := fn(ctx.Request().Context(), reviewer, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "reviewing absence request")
	}
	return ctx.JSON(http.StatusOK, req)
}
