package echoapi

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/renshulabs/academy/core"
)

var orderingParam = "ordering"

// pathParam returns the named path parameter, URL-unescaped. Program names
// contain spaces ("Brazilian Jiu-Jitsu") and arrive percent-encoded.
func pathParam(ctx echo.Context, name string) string {
	v := ctx.Param(name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	DeleteRequest struct {
		IDs []string `json:"ids" validate:"required,min=1,dive,uuid4"`
	}
)

func (r *LoginRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}

func (r *DeleteRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}
