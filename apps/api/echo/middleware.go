package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/renshulabs/academy/core/admin"
)

// adminMiddleware gates a route group on allow-list membership. The list is
// consulted on every request so a revoked entry locks the session out
// immediately, token validity notwithstanding.
func adminMiddleware(svc *admin.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			auth, err := svc.Authorize(ctx.Request().Context(), claims.Email)
			if err != nil {
				return err
			}

			ctx.Set(contextAuthKey, auth)
			return next(ctx)
		}
	}
}
