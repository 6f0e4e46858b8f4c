package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/api"
	"github.com/carson-networks/ledger-server/internal/balance"
	"github.com/carson-networks/ledger-server/internal/config"
	"github.com/carson-networks/ledger-server/internal/events"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/operator"
	"github.com/carson-networks/ledger-server/internal/service"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/backends"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("godotenv.Load")
	}

	envConfig, err := config.ProcessEnvironmentVariables()
	if err != nil {
		logrus.WithError(err).Fatal("config.ProcessEnvironmentVariables")
		return
	}

	logger := logging.SetupLogging(envConfig.LogLevel)
	logrus.Info("ledger-server starting")

	ctx := context.Background()
	backend, err := backends.Open(ctx, envConfig)
	if err != nil {
		logrus.WithError(err).Fatal("backends.Open")
		return
	}
	dbStorage := storage.NewStorage(backend)
	defer dbStorage.Close()

	delegator := operator.NewOperatorDelegator(dbStorage, envConfig.Workers)
	delegator.Start()
	defer delegator.Stop()

	hub := events.NewHub()
	publishers := events.Publishers{hub}
	if len(envConfig.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(envConfig.KafkaBrokers, envConfig.KafkaTopic)
		defer kafkaPublisher.Close()
		publishers = append(publishers, kafkaPublisher)
	}

	svc := service.NewService(dbStorage, delegator, balance.NewEngine(), publishers)
	if err := svc.Ledger.Bootstrap(ctx); err != nil {
		logrus.WithError(err).Fatal("LedgerService.Bootstrap")
		return
	}

	httpRest := &api.Rest{
		Logger:      logger,
		Port:        envConfig.Port,
		Storage:     dbStorage,
		Service:     svc,
		Hub:         hub,
		CORSOrigins: envConfig.CORSOrigins,
	}
	go httpRest.Serve()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpRest.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HttpServer.Shutdown")
	}
}
