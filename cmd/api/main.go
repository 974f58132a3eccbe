package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eztools/cmd"
	"eztools/common"
	"eztools/eztool"
	nats2 "eztools/nats"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	root := cmd.NewRootCommand("api", "Serves the EZTools task API", run)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(command *cobra.Command, workerConfig *cmd.WorkerConfig) error {
	ctx, stop := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := common.NewLogger(workerConfig.LogLevel)

	registry, err := eztool.NewRegistry(workerConfig.ToolPaths())
	if err != nil {
		return err
	}

	nc, err := workerConfig.ConnectionConfig.Connect()
	if err != nil {
		return err
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		return err
	}
	osb, err := js.ObjectStore(workerConfig.ObjectStoreBucketConfig.Name)
	if err != nil {
		return err
	}
	kvb, err := js.KeyValue(workerConfig.KeyValueBucketConfig.Name)
	if err != nil {
		return err
	}

	c := &connection{
		publisher:      nats2.NewPublisherWrapper[cmd.TaskMsg](js, &common.JsonSerializer[cmd.TaskMsg]{}),
		resultKvb:      nats2.NewKeyValueTypedWrapper[cmd.RunResult](kvb, &common.JsonSerializer[cmd.RunResult]{}),
		osb:            osb,
		registry:       registry,
		consumerConfig: workerConfig.ConsumerConfig,
		logger:         logger,
	}

	server := &http.Server{
		Addr:              workerConfig.ListenAddress,
		Handler:           c.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		common.HandleErrLog(server.Shutdown(shutdownCtx), logger)
	}()

	logger.Info().Str("address", server.Addr).Msg("API listening")
	if err = server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
