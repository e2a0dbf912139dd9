package main // API server entry point

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/roudbar/studio-reservation/internal/config"
	"github.com/roudbar/studio-reservation/internal/database"
	"github.com/roudbar/studio-reservation/internal/handler"
	"github.com/roudbar/studio-reservation/internal/notify"
	"github.com/roudbar/studio-reservation/internal/queue"
	"github.com/roudbar/studio-reservation/internal/repository"
	"github.com/roudbar/studio-reservation/internal/router"
	"github.com/roudbar/studio-reservation/internal/service"
)

func main() {
	// .env is a development convenience; in production the variables
	// come from the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("mongo: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Printf("mongo close: %v", err)
		}
	}()

	users := repository.NewUserRepo(db)
	courses := repository.NewCourseRepo(db)
	schedules := repository.NewScheduleRepo(db)
	reservations := repository.NewReservationRepo(db)
	identities := repository.NewQRIdentityRepo(db)
	tokens := repository.NewTokenRepo(db)

	var mailer notify.Mailer
	if cfg.SMTPAddr != "" {
		mailer = notify.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass)
	} else {
		mailer = notify.LogMailer{}
	}

	issuer := service.NewQRIssuer(identities)
	lifecycle := service.NewReservationService(
		users, courses, schedules, reservations, issuer,
		service.QueuePublisher{}, mailer,
	)
	bulk := service.NewBulkDeleter(courses, schedules, reservations, lifecycle)

	rdb := config.NewRedisClient()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, router.Deps{
		Cfg:          cfg,
		Redis:        rdb,
		Auth:         handler.NewAuthHandler(cfg, users, tokens),
		Reservations: handler.NewReservationHandler(lifecycle),
		Scan:         handler.NewScanHandler(lifecycle),
		Schedules:    handler.NewScheduleHandler(users, courses, schedules, bulk),
	})

	// The booked-event consumer reconnects on its own; a missing broker
	// only disables the audit log, never the API.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
