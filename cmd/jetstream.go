package cmd

import (
	nats2 "eztools/nats"

	"github.com/nats-io/nats.go"
)

// SetupJetStream idempotently creates the stream, consumer and buckets the worker uses.
func SetupJetStream(js nats.JetStreamContext, workerConfig *WorkerConfig) error {
	consumerConfig := workerConfig.ConsumerConfig
	_, err := nats2.SetStream(
		js,
		&nats.StreamConfig{
			Name:      consumerConfig.StreamName,
			Subjects:  []string{consumerConfig.StreamName + ".tasks.>"},
			Retention: nats.WorkQueuePolicy,
			Replicas:  consumerConfig.Replicas,
		},
	)
	if err != nil {
		return err
	}

	_, err = nats2.SetConsumer(
		js,
		consumerConfig.StreamName,
		&nats.ConsumerConfig{
			Durable:   consumerConfig.Name,
			AckPolicy: nats.AckExplicitPolicy,
			AckWait:   consumerConfig.AckWaitTime.Duration,
			Replicas:  consumerConfig.Replicas,
		},
	)
	if err != nil {
		return err
	}

	osBucketConfig := workerConfig.ObjectStoreBucketConfig
	_, err = nats2.CreateOrGetObjectStoreBucket(
		js,
		&nats.ObjectStoreConfig{
			Bucket:      osBucketConfig.Name,
			Description: osBucketConfig.Description,
			Replicas:    osBucketConfig.Replicas,
		})
	if err != nil {
		return err
	}

	kvBucketConfig := workerConfig.KeyValueBucketConfig
	_, err = nats2.CreateOrGetKeyValueStoreBucket(
		js,
		&nats.KeyValueConfig{
			Bucket:      kvBucketConfig.Name,
			Description: kvBucketConfig.Description,
			Replicas:    kvBucketConfig.Replicas,
		},
	)
	return err
}
