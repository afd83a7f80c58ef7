package main

import (
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"catalog/internal/config"
	"catalog/internal/logger"
	"catalog/internal/services"
	"catalog/pkg/rabbitmq"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// --- Events (optional) ---
	var events services.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:      cfg.RabbitMQ.URL,
			Exchange: cfg.RabbitMQ.Exchange,
			Logger:   zapLogger,
		})
		if err != nil {
			zapLogger.Fatal("Failed to initialize RabbitMQ client", zap.Error(err))
		}
		defer mqClient.Close()
		events = mqClient

		if err := mqClient.ConsumeProductEvents("catalog.stock-alerts", services.EventProductLowStock, stockAlertHandler(zapLogger)); err != nil {
			zapLogger.Error("Failed to start RabbitMQ consumer", zap.Error(err))
		}
	} else {
		zapLogger.Info("RABBITMQ_URL not set; product events are disabled")
	}

	app, cleanup, err := NewApp(cfg, zapLogger, events)
	if err != nil {
		zapLogger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer func() {
		if err := cleanup(); err != nil {
			zapLogger.Error("Error closing database", zap.Error(err))
		}
	}()

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		zapLogger.Info("Starting server", zap.String("port", cfg.Server.Port), zap.String("environment", cfg.Server.Env))
		if err := app.Listen(cfg.Server.Port); err != nil {
			zapLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		zapLogger.Error("Error during Fiber shutdown", zap.Error(err))
	}
	zapLogger.Info("Server gracefully stopped")
}

// stockAlertHandler logs every low-stock event so operators can restock.
func stockAlertHandler(logger *zap.Logger) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var event services.ProductEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return err
		}
		fields := []zap.Field{zap.String("product_id", event.ProductID.String())}
		if event.Product != nil {
			fields = append(fields,
				zap.String("name", event.Product.Name),
				zap.Int("stock", event.Product.Stock.Value()),
			)
		}
		logger.Warn("Low stock alert", fields...)
		return nil
	}
}
