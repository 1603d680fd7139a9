package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/renshulabs/academy/apps/api/echo"
	"github.com/renshulabs/academy/core"
	"github.com/renshulabs/academy/core/admin"
	"github.com/renshulabs/academy/core/event"
	"github.com/renshulabs/academy/core/fee"
	"github.com/renshulabs/academy/core/progress"
	"github.com/renshulabs/academy/core/student"
	emailsvc "github.com/renshulabs/academy/services/email"
	sendgridmail "github.com/renshulabs/academy/services/email/sendgrid"
	logsvc "github.com/renshulabs/academy/services/logger"
	"github.com/renshulabs/academy/storage/cache"
	"github.com/renshulabs/academy/storage/database"
	sqlxrepos "github.com/renshulabs/academy/storage/database/sqlx"
	"github.com/renshulabs/academy/storage/files"
	"github.com/renshulabs/academy/storage/realtime"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig(core.Getwd())

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer func() { _ = db.Close() }()
	if err = database.Migrate(db.DB); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}

	// set up cache; the app runs uncached when redis is unreachable
	appCache, err := cache.OpenRedis(conf)
	if err != nil {
		logger.Warn(fmt.Sprintf("cache unavailable, running without: %v", err), err)
		appCache = nil
	}

	// set up file storage
	fileStore, err := files.NewStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = sendgridmail.NewService(conf, logger)
	}
	core.InitMail(conf)

	adminSvc := admin.NewService(sqlxrepos.NewAdminRepository(db, conf), mailSvc)
	studentSvc := student.NewService(sqlxrepos.NewStudentRepository(db, conf))
	feeSvc := fee.NewService(sqlxrepos.NewFeeRepository(db, conf), appCache, mailSvc, conf)
	progressSvc := progress.NewService(sqlxrepos.NewProgressRepository(db, conf))
	eventSvc := event.NewService(sqlxrepos.NewEventRepository(db, conf), appCache, conf)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Realtime invalidation

	rtCtx, rtCancel := context.WithCancel(context.Background())
	defer rtCancel()

	hub, err := realtime.NewHub(database.URL(conf), logger)
	if err != nil {
		logger.Warn(fmt.Sprintf("realtime notifications unavailable: %v", err), err)
	} else {
		hub.Subscribe("fees", func(realtime.Change) { feeSvc.InvalidateSummaries(rtCtx) })
		hub.Subscribe("events", func(realtime.Change) { eventSvc.Invalidate(rtCtx) })
		go hub.Run(rtCtx)
		defer func() { _ = hub.Close() }()
	}

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Address:     conf.Server.Address(),
		Conf:        conf,
		Logger:      logger,
		Validate:    validate,
		Translator:  translator,
		AdminSvc:    adminSvc,
		StudentSvc:  studentSvc,
		FeeSvc:      feeSvc,
		ProgressSvc: progressSvc,
		EventSvc:    eventSvc,
		FileStore:   fileStore,
		SignalShutdown: func() {
			shutdown <- syscall.SIGTERM
		},
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
	rtCancel()

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
