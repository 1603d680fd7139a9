package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/renshulabs/academy/core/progress"
)

type progressApi struct {
	svc      *progress.Service
	validate *validator.Validate
}

type stripeRequest struct {
	Delta int `json:"delta" validate:"required"`
}

func (r stripeRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

func registerProgressAPI(g *echo.Group, jwt, adm echo.MiddlewareFunc, opts *Options) {
	api := progressApi{
		svc:      opts.ProgressSvc,
		validate: opts.Validate,
	}

	pg := g.Group("/progress", jwt, adm)
	pg.POST("/promote", api.promote)

	sg := g.Group("/students/:id", jwt, adm)
	sg.GET("/progress", api.queryByStudent)
	sg.GET("/progress/:program", api.retrieve)
	sg.PATCH("/progress/:program/stripes", api.adjustStripes)
	sg.PATCH("/progress/:program/status", api.setStatus)
	sg.GET("/history", api.history)
}

// Handlers

func (api *progressApi) promote(ctx echo.Context) error {
	var data progress.Promotion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Promotion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, entry, err := api.svc.Promote(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"progress": p, "entry": entry})
}

func (api *progressApi) queryByStudent(ctx echo.Context) error {
	records, err := api.svc.QueryByStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying progress records")
	}
	if records == nil {
		records = []progress.Progress{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *progressApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"), pathParam(ctx, "program"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *progressApi) adjustStripes(ctx echo.Context) error {
	var data stripeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to stripeRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.AdjustStripes(ctx.Request().Context(), ctx.Param("id"), pathParam(ctx, "program"), data.Delta)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *progressApi) setStatus(ctx echo.Context) error {
	var data progress.UpdateStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.SetStatus(ctx.Request().Context(), ctx.Param("id"), pathParam(ctx, "program"), data.Status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *progressApi) history(ctx echo.Context) error {
	entries, err := api.svc.History(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying promotion history")
	}
	if entries == nil {
		entries = []progress.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}
