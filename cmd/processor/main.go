package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ds124wfegd/assetrouter/config"
	"github.com/ds124wfegd/assetrouter/internal/appServer"
	"github.com/ds124wfegd/assetrouter/internal/pkg/processor"
	"github.com/ds124wfegd/assetrouter/internal/pkg/storage"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	godotenv.Load()

	viperInstance, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Cannot load config. Error: {%s}", err.Error())
	}
	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		logrus.Fatalf("Cannot parse config. Error: {%s}", err.Error())
	}
	appServer.SetupLogger(cfg.Log)

	deriver := processor.NewImageProcessor(storage.NewFileStorage(cfg.Processor.StoragePath), processor.Options{
		JPEGQuality:  cfg.Processor.JPEGQuality,
		MinFileBytes: cfg.Processor.MinFileBytes,
		Overwrite:    cfg.Processor.Overwrite,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	processor.StartImageProcessorConsumer(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, deriver)
}
