package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/safarni/tourism-booking/internal/config"
	"github.com/safarni/tourism-booking/internal/database"
	"github.com/safarni/tourism-booking/internal/handler"
	"github.com/safarni/tourism-booking/internal/notify"
	"github.com/safarni/tourism-booking/internal/payment"
	"github.com/safarni/tourism-booking/internal/queue"
	"github.com/safarni/tourism-booking/internal/repository"
	"github.com/safarni/tourism-booking/internal/router"
	"github.com/safarni/tourism-booking/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.Bootstrap(context.Background(), db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache/rate-limit/locking disabled")
	}

	var dispatcher notify.Dispatcher = notify.LogDispatcher{}
	if cfg.AMQPURL != "" {
		dispatcher = notify.NewAMQPDispatcher(cfg.AMQPURL)
		go func() {
			if err := queue.StartNotificationConsumer(cfg.AMQPURL); err != nil {
				log.Printf("notify-consumer: %v", err)
			}
		}()
	}

	var gateway payment.Gateway
	if cfg.GatewayURL != "" {
		gateway = payment.NewHTTPGateway(cfg.GatewayURL)
	} else {
		gateway = payment.Disabled{}
	}

	store := repository.NewStore(db)
	locker := service.NewLocker(rdb, 0)
	wallet := service.NewWallet(store)
	loyalty := service.NewLoyalty(store)
	ledger := service.NewLedger(store, wallet, loyalty, gateway, locker, dispatcher)

	scheduler := service.NewReminderScheduler(store, dispatcher, locker)
	scheduler.CheckInterval = cfg.ReminderInterval
	scheduler.Start()
	defer scheduler.Stop()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAPI(e,
		handler.NewBookingHandler(ledger),
		handler.NewTouristHandler(store, loyalty),
		cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
