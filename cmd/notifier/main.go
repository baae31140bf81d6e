package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sarawakparks/park-reservations/internal/adapters/rabbit"
	"github.com/sarawakparks/park-reservations/internal/config"
	"github.com/sarawakparks/park-reservations/internal/observability"
)

// Worker that drains reservation events and hands them to the
// notification channel (currently the log; mail/SMS hang off here).
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()

	consumer, err := rabbit.NewConsumer(conn, "notifications.q", "#")
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := NewNotifyWorker(consumer, logger)
	go worker.Run(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown notifier")
}

type NotifyWorker struct {
	consumer *rabbit.Consumer
	logger   observability.Logger
}

func NewNotifyWorker(consumer *rabbit.Consumer, logger observability.Logger) *NotifyWorker {
	return &NotifyWorker{consumer: consumer, logger: logger}
}

func (w *NotifyWorker) Run(ctx context.Context) {
	deliveries, err := w.consumer.Consume(ctx)
	if err != nil {
		w.logger.Error("failed to start consuming", err)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			var payload map[string]interface{}
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				w.logger.Error("failed to decode event", err)
				d.Nack(false, false)
				continue
			}
			w.logger.WithFields(map[string]interface{}{
				"event":   d.RoutingKey,
				"payload": payload,
			}).Info("notification dispatched")
			d.Ack(false)
		}
	}
}
