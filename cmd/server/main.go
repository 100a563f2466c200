package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-formation-reservation/config"
	"go-formation-reservation/internal/database"
	"go-formation-reservation/internal/events"
	"go-formation-reservation/internal/handler"
	"go-formation-reservation/internal/ledger"
	"go-formation-reservation/internal/repository"
	"go-formation-reservation/internal/service"
	"go-formation-reservation/internal/worker"
	"go-formation-reservation/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	log := logger.WithComponent("main")
	cfg := config.LoadConfig()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 事件後端：memory / redis / rabbit
	var publisher events.Publisher
	var subscriber events.Subscriber
	switch cfg.Events.Backend {
	case "memory":
		bus := events.NewMemoryBus(1024)
		publisher, subscriber = bus, bus
	case "rabbit":
		rabbitPublisher, err := events.NewRabbitPublisher(cfg.Rabbit.URL, cfg.Rabbit.Queue)
		if err != nil {
			log.Fatal("Failed to initialize rabbitmq publisher", zap.Error(err))
		}
		defer rabbitPublisher.Close()
		publisher = rabbitPublisher
		// rabbit 後端由下游系統自行消費，本進程不起 worker
	default:
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		defer rdb.Close()

		bus, err := events.NewRedisStreamBus(rdb, "", nil)
		if err != nil {
			log.Fatal("Failed to initialize redis stream bus", zap.Error(err))
		}
		publisher, subscriber = bus, bus
	}

	offeringRepo := repository.NewOfferingRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)
	capacityLedger := ledger.NewCapacityLedger(offeringRepo)

	offeringService := service.NewOfferingService(pool, offeringRepo, capacityLedger, publisher)
	reservationService := service.NewReservationService(pool, reservationRepo, offeringRepo, capacityLedger, publisher)

	if subscriber != nil {
		eventWorker := worker.NewEventWorker(subscriber, nil)
		if err := eventWorker.Start(ctx); err != nil {
			log.Fatal("Failed to start event worker", zap.Error(err))
		}
	}

	reconciler := worker.NewCapacityReconciler(offeringRepo, cfg.Worker.ReconcileInterval)
	reconciler.Start(ctx)

	router := gin.Default()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	handler.NewOfferingHandler(offeringService).RegisterRoutes(router)
	handler.NewReservationHandler(reservationService).RegisterRoutes(router)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	log.Info("Server started", zap.String("addr", cfg.HTTP.Addr))

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}
