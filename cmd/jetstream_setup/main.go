package main

import (
	"os"

	"eztools/cmd"
	"eztools/common"

	"github.com/spf13/cobra"
)

func main() {
	root := cmd.NewRootCommand("jetstream_setup", "Creates the stream, consumer and buckets used by the worker and the API", run)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(_ *cobra.Command, workerConfig *cmd.WorkerConfig) error {
	logger := common.NewLogger(workerConfig.LogLevel)

	nc, err := workerConfig.ConnectionConfig.Connect()
	if err != nil {
		return err
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		return err
	}
	if err = cmd.SetupJetStream(js, workerConfig); err != nil {
		return err
	}
	logger.Info().
		Str("stream", workerConfig.ConsumerConfig.StreamName).
		Str("consumer", workerConfig.ConsumerConfig.Name).
		Str("object-store", workerConfig.ObjectStoreBucketConfig.Name).
		Str("key-value", workerConfig.KeyValueBucketConfig.Name).
		Msg("JetStream is set up")
	return nil
}
