package main

import (
	"os"
	"os/signal"
	"syscall"

	"eztools/cmd"
	"eztools/common"
	"eztools/eztool"
	nats2 "eztools/nats"

	"github.com/nats-io/nats.go"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
)

func main() {
	root := cmd.NewRootCommand("worker", "Runs EZTools tasks pulled from JetStream", run)
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
	typedKVB := nats2.NewKeyValueTypedWrapper[cmd.RunResult](kvb, &common.JsonSerializer[cmd.RunResult]{})

	consumerConfig := workerConfig.ConsumerConfig
	sub, err := js.PullSubscribe("", consumerConfig.Name, nats.Bind(consumerConfig.StreamName, consumerConfig.Name))
	if err != nil {
		return err
	}
	typedSub := nats2.NewSubscriptionWrapper[cmd.TaskMsg](sub, &common.JsonSerializer[cmd.TaskMsg]{})

	executor := &eztool.CommandExecutor{Env: cmd.CreateEnv()}

	var wg conc.WaitGroup
	for i := 0; i < workerConfig.WorkerThreads; i++ {
		w := &worker{
			sub:        typedSub,
			osb:        osb,
			kvb:        typedKVB,
			registry:   registry,
			executor:   executor,
			tempRoot:   workerConfig.TempDir,
			ackWait:    consumerConfig.AckWaitTime.Duration,
			logger:     logger.With().Int("worker", i).Logger(),
			serializer: &common.JsonSerializer[eztool.TaskResult]{},
		}
		wg.Go(func() { w.loop(ctx) })
	}
	logger.Info().Int("workers", workerConfig.WorkerThreads).Msg("Worker started")

	wg.Wait()
	return nil
}
