package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/renshulabs/academy/core/event"
	"github.com/renshulabs/academy/storage/files"
)

type eventApi struct {
	svc      *event.Service
	validate *validator.Validate
	store    *files.Store
}

func registerEventAPI(g *echo.Group, jwt, adm echo.MiddlewareFunc, opts *Options) {
	api := eventApi{
		svc:      opts.EventSvc,
		validate: opts.Validate,
		store:    opts.FileStore,
	}

	eg := g.Group("/events")

	// public listing for the academy site
	eg.GET("/public", api.publicList)

	// authed endpoints
	ag := eg.Group("", jwt, adm)
	ag.POST("", api.create)
	ag.GET("", api.query)
	ag.DELETE("", api.destroyMultiple)

	dg := ag.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/image", api.uploadImage)
}

// Handlers

func (api *eventApi) publicList(ctx echo.Context) error {
	events, err := api.svc.PublicList(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing public events")
	}
	if events == nil {
		events = []event.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *eventApi) create(ctx echo.Context) error {
	var data event.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *eventApi) query(ctx echo.Context) error {
	events, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if events == nil {
		events = []event.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	e, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *eventApi) update(ctx echo.Context) error {
	orig, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data event.UpdateEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvent")
	}
	if err := data.Validate(orig, api.validate); err != nil {
		return err
	}

	e, err := api.svc.Update(ctx.Request().Context(), orig, data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *eventApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *eventApi) destroyMultiple(ctx echo.Context) error {
	var data DeleteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeleteRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), data.IDs...); err != nil {
		return errors.Wrap(err, "deleting events")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *eventApi) uploadImage(ctx echo.Context) error {
	orig, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	fh, err := ctx.FormFile("image")
	if err != nil {
		return errors.Wrap(err, "reading image upload")
	}
	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening image upload")
	}
	defer func() { _ = src.Close() }()

	path, err := api.store.Save(files.BucketEvents, fh.Filename, src)
	if err != nil {
		return errors.Wrap(err, "storing image")
	}
	if orig.ImagePath != "" {
		_ = api.store.Delete(orig.ImagePath)
	}

	published := orig.Published
	e, err := api.svc.Update(ctx.Request().Context(), orig, event.UpdateEvent{
		Title:     orig.Title,
		StartsAt:  orig.StartsAt,
		Location:  orig.Location,
		Body:      orig.Body,
		ImagePath: path,
		Published: &published,
	})
	if err != nil {
		return errors.Wrap(err, "saving image path")
	}
	return ctx.JSON(http.StatusOK, e)
}
