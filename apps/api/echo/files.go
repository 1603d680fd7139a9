package echoapi

import (
	"net/http"
	"path"

	"github.com/labstack/echo/v4"

	"github.com/renshulabs/academy/storage/files"
)

type filesApi struct {
	store *files.Store
}

// registerFilesAPI serves stored uploads. Public buckets are served as-is;
// private ones require a valid, unexpired signature in the query string.
func registerFilesAPI(app *echo.Echo, store *files.Store) {
	api := filesApi{store: store}
	app.GET("/files/:bucket/:name", api.serve)
}

func (api *filesApi) serve(ctx echo.Context) error {
	relPath := path.Join(ctx.Param("bucket"), ctx.Param("name"))

	if api.store.IsPrivate(relPath) {
		expires := ctx.QueryParam("expires")
		sig := ctx.QueryParam("sig")
		if err := api.store.VerifySignature(relPath, expires, sig); err != nil {
			// expired or forged; the caller requests a fresh URL
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
	}

	f, err := api.store.Open(relPath)
	if err != nil {
		if err == files.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	defer func() { _ = f.Close() }()

	return ctx.Stream(http.StatusOK, "application/octet-stream", f)
}
