package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr     string
	MongoURI     string
	MongoDB      string
	RedisAddr    string
	RabbitURL    string
	RefundWindow time.Duration
	IdempTTL     time.Duration
	OTLPEndpoint string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	refundWindow, _ := time.ParseDuration(os.Getenv("REFUND_WINDOW"))
	if refundWindow == 0 {
		refundWindow = 24 * time.Hour
	}

	idempTTL, _ := time.ParseDuration(os.Getenv("IDEMP_TTL"))
	if idempTTL == 0 {
		idempTTL = time.Hour
	}

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "park_system_db"
	}

	return &Config{
		HTTPAddr:     addr,
		MongoURI:     os.Getenv("MONGO_URI"),
		MongoDB:      dbName,
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RabbitURL:    os.Getenv("RABBIT_URL"),
		RefundWindow: refundWindow,
		IdempTTL:     idempTTL,
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}
