package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/renshulabs/academy/core/fee"
	"github.com/renshulabs/academy/storage/files"
)

type feeApi struct {
	svc      *fee.Service
	validate *validator.Validate
	store    *files.Store
}

func registerFeeAPI(g *echo.Group, jwt, adm echo.MiddlewareFunc, opts *Options) {
	api := feeApi{
		svc:      opts.FeeSvc,
		validate: opts.Validate,
		store:    opts.FileStore,
	}

	fg := g.Group("/fees", jwt, adm)
	fg.GET("", api.query)
	fg.PUT("", api.upsert)
	fg.DELETE("", api.destroyMultiple)
	fg.GET("/summary", api.summary)
	fg.GET("/carry-forward", api.carryForward)
	fg.GET("/:studentID/:year/:month", api.retrieve)
	fg.POST("/:studentID/:year/:month/receipt", api.uploadReceipt)
}

func bindPeriod(ctx echo.Context) (studentID string, month, year int, err error) {
	studentID = ctx.Param("studentID")
	month, err = strconv.Atoi(ctx.Param("month"))
	if err != nil {
		return "", 0, 0, errHttpNotFound
	}
	year, err = strconv.Atoi(ctx.Param("year"))
	if err != nil {
		return "", 0, 0, errHttpNotFound
	}
	return studentID, month, year, nil
}

// Handlers

// upsert creates or replaces the record for a (student, month, year) period.
// The carry-forward amount is an input, typically prefilled from
// /fees/carry-forward; it affects the stored balance but never the status.
func (api *feeApi) upsert(ctx echo.Context) error {
	var data fee.NewFee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFee")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	f, err := api.svc.Upsert(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "upserting fee")
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *feeApi) query(ctx echo.Context) error {
	filter := new(fee.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []fee.Fee{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	fees, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying fees")
	}
	if fees == nil {
		fees = []fee.Fee{}
	}
	return ctx.JSON(http.StatusOK, fees)
}

func (api *feeApi) retrieve(ctx echo.Context) error {
	studentID, month, year, err := bindPeriod(ctx)
	if err != nil {
		return err
	}
	f, err := api.svc.Get(ctx.Request().Context(), studentID, month, year)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *feeApi) summary(ctx echo.Context) error {
	filter := new(fee.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	s, err := api.svc.Summary(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "summarizing fees")
	}
	return ctx.JSON(http.StatusOK, s)
}

// carryForward returns the suggested carry-forward for a new period: the
// previous month's outstanding balance, 0 when the previous record is absent
// or fully paid.
func (api *feeApi) carryForward(ctx echo.Context) error {
	studentID := ctx.QueryParam("student_id")
	month, _ := strconv.Atoi(ctx.QueryParam("month"))
	year, _ := strconv.Atoi(ctx.QueryParam("year"))
	if studentID == "" || month < 1 || month > 12 || year == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "student_id, month and year are required")
	}

	amount, err := api.svc.CarryForward(ctx.Request().Context(), studentID, month, year)
	if err != nil {
		return errors.Wrap(err, "resolving carry-forward")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"carry_forward": amount})
}

func (api *feeApi) destroyMultiple(ctx echo.Context) error {
	var data DeleteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeleteRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), data.IDs...); err != nil {
		return errors.Wrap(err, "deleting fees")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// uploadReceipt stores a payment receipt in the private bucket; it is only
// served back through short-lived signed URLs.
func (api *feeApi) uploadReceipt(ctx echo.Context) error {
	studentID, month, year, err := bindPeriod(ctx)
	if err != nil {
		return err
	}
	f, err := api.svc.Get(ctx.Request().Context(), studentID, month, year)
	if err != nil {
		return err
	}

	fh, err := ctx.FormFile("receipt")
	if err != nil {
		return errors.Wrap(err, "reading receipt upload")
	}
	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening receipt upload")
	}
	defer func() { _ = src.Close() }()

	path, err := api.store.Save(files.BucketReceipts, fh.Filename, src)
	if err != nil {
		return errors.Wrap(err, "storing receipt")
	}
	if f.ReceiptPath != "" {
		_ = api.store.Delete(f.ReceiptPath)
	}

	// preserve the stored balance: the record's carry-forward share is what is
	// left after the period's own shortfall
	carry := f.BalanceDue + f.PaidAmount - f.MonthlyFee
	if carry < 0 {
		carry = 0
	}
	updated, err := api.svc.Upsert(ctx.Request().Context(), fee.NewFee{
		StudentID:    f.StudentID,
		Month:        f.Month,
		Year:         f.Year,
		MonthlyFee:   f.MonthlyFee,
		PaidAmount:   f.PaidAmount,
		CarryForward: carry,
		ReceiptPath:  path,
	})
	if err != nil {
		return errors.Wrap(err, "saving receipt path")
	}

	url, err := api.store.URL(path)
	if err != nil {
		return errors.Wrap(err, "signing receipt URL")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"fee": updated, "receipt_url": url})
}
