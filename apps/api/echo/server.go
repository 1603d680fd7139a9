package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/renshulabs/academy/core"
	"github.com/renshulabs/academy/core/admin"
	"github.com/renshulabs/academy/core/event"
	"github.com/renshulabs/academy/core/fee"
	"github.com/renshulabs/academy/core/progress"
	"github.com/renshulabs/academy/core/student"
	"github.com/renshulabs/academy/storage/files"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		AdminSvc    *admin.Service
		StudentSvc  *student.Service
		FeeSvc      *fee.Service
		ProgressSvc *progress.Service
		EventSvc    *event.Service
		FileStore   *files.Store

		// SignalShutdown triggers a graceful app shutdown on integrity errors.
		SignalShutdown func()
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	registerFilesAPI(s.app, s.opts.FileStore)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))
	adm := adminMiddleware(s.opts.AdminSvc)

	registerAdminAPI(v1, jwt, adm, s.opts)
	registerStudentAPI(v1, jwt, adm, s.opts)
	registerFeeAPI(v1, jwt, adm, s.opts)
	registerProgressAPI(v1, jwt, adm, s.opts)
	registerDisciplineAPI(v1, jwt, adm)
	registerEventAPI(v1, jwt, adm, s.opts)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Renshu API!")
}
