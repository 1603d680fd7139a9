package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/renshulabs/academy/core/discipline"
)

type disciplineApi struct{}

func registerDisciplineAPI(g *echo.Group, jwt, adm echo.MiddlewareFunc) {
	api := disciplineApi{}

	dg := g.Group("/disciplines", jwt, adm)
	dg.GET("", api.query)
	dg.GET("/:name", api.retrieve)
}

// Handlers

func (api disciplineApi) query(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, discipline.All())
}

func (api disciplineApi) retrieve(ctx echo.Context) error {
	cfg := discipline.Get(pathParam(ctx, "name"))
	if cfg == nil {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, cfg)
}
