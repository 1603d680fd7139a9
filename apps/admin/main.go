package main

import (
	"log"
	"os"

	"github.com/renshulabs/academy/core"
	"github.com/renshulabs/academy/core/admin"
	emailsvc "github.com/renshulabs/academy/services/email"
	"github.com/renshulabs/academy/storage/database"
	sqlxrepos "github.com/renshulabs/academy/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig(core.Getwd())

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(db.Ping())

	// welcome emails print to the console when adding admins from a shell
	mailSvc := emailsvc.NewConsoleService(conf)
	core.InitMail(conf)

	// start CLI
	cli := commandLine{
		db:       db,
		conf:     conf,
		adminSvc: admin.NewService(sqlxrepos.NewAdminRepository(db, conf), mailSvc),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
