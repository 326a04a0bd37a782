package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/twitoff/internal/appconfig"
	"github.com/lisanmuaddib/twitoff/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Error loading .env file")
	}

	// Initialize logger from LOG_LEVEL and LOG_FORMAT
	log := logging.NewLogger()

	// Cancelled on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := appconfig.ConfigureServices(ctx, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure services")
	}
	defer func() {
		if err := services.Close(); err != nil {
			log.WithError(err).Warn("Failed to close services")
		}
	}()

	log.WithFields(logrus.Fields{
		"embedding_provider": services.Embedder.Provider(),
	}).Info("Starting TwitOff")

	if err := services.Server.Run(ctx); err != nil {
		log.WithError(err).Error("Server stopped with error")
		return
	}

	log.Info("TwitOff shutdown complete")
}
