package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/notes-api/internal/config"
	"github.com/iliyamo/notes-api/internal/logging"
	"github.com/iliyamo/notes-api/internal/queue"
)

func main() {
	cfg := config.LoadQueueConfig()
	log := logging.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := queue.NewEmailConsumer(cfg.RabbitURL, cfg.EmailQueue, cfg.EmailSendDelay, log.WithField("component", "email-consumer"))
	log.WithField("queue", cfg.EmailQueue).Info("email worker starting")
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("email worker stopped")
	}
	log.Info("email worker stopped")
}
