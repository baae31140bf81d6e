package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	mongoadapter "github.com/sarawakparks/park-reservations/internal/adapters/mongo"
	"github.com/sarawakparks/park-reservations/internal/adapters/rabbit"
	redisadapter "github.com/sarawakparks/park-reservations/internal/adapters/redis"
	"github.com/sarawakparks/park-reservations/internal/booking"
	"github.com/sarawakparks/park-reservations/internal/config"
	httphandler "github.com/sarawakparks/park-reservations/internal/http"
	"github.com/sarawakparks/park-reservations/internal/idempotency"
	"github.com/sarawakparks/park-reservations/internal/observability"
	"github.com/sarawakparks/park-reservations/internal/rateLimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger()

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.MongoDB)

	parks := mongoadapter.NewParkRepository(db, logger)
	merch := mongoadapter.NewMerchRepository(db, logger)
	tickets := mongoadapter.NewTicketRepository(db, logger)
	orders := mongoadapter.NewOrderRepository(db, logger)
	carts := mongoadapter.NewCartRepository(db, logger)
	audit := mongoadapter.NewAuditLogger(db, logger)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	redisCache := redisadapter.NewCache(redisClient)
	redisIdemp := redisadapter.NewIdempotency(redisClient)
	idemp := idempotency.NewIdempotency(redisIdemp, cfg.IdempTTL)
	rl := rateLimit.NewRateLimiter(redisCache)

	rabbitConn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer rabbitConn.Close()
	rabbitPub, err := rabbit.NewPublisher(rabbitConn)
	if err != nil {
		log.Fatalf("failed to create publisher: %v", err)
	}
	events := rabbit.NewEventBus(rabbitPub, logger)

	svc := booking.NewService(parks, merch, tickets, orders, carts, audit, events,
		booking.NewRefundPolicy(cfg.RefundWindow), logger)

	handlers := httphandler.NewHandlers(cfg, svc, idemp, logger)
	r := httphandler.SetupRouter(handlers, logger, rl)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}
