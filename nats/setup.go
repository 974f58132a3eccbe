package nats

import (
	"errors"
	"reflect"

	"github.com/nats-io/nats.go"
)

// SetStream creates the stream or updates it when the config differs.
func SetStream(js nats.JetStreamManager, config *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error) {
	info, err := js.StreamInfo(config.Name, opts...)
	if errors.Is(err, nats.ErrStreamNotFound) {
		return js.AddStream(config, opts...)
	}
	if err != nil {
		return nil, err
	}
	if reflect.DeepEqual(info.Config, *config) {
		return info, nil
	}
	return js.UpdateStream(config, opts...)
}

func SetConsumer(js nats.JetStreamManager, stream string, config *nats.ConsumerConfig, opts ...nats.JSOpt) (*nats.ConsumerInfo, error) {
	info, err := js.ConsumerInfo(stream, config.Durable, opts...)
	if errors.Is(err, nats.ErrConsumerNotFound) {
		return js.AddConsumer(stream, config, opts...)
	}
	if err != nil {
		return nil, err
	}
	if reflect.DeepEqual(info.Config, *config) {
		return info, nil
	}
	return js.UpdateConsumer(stream, config, opts...)
}

func bucketMissing(err error) bool {
	return errors.Is(err, nats.ErrBucketNotFound) || errors.Is(err, nats.ErrStreamNotFound)
}

func CreateOrGetObjectStoreBucket(osm nats.ObjectStoreManager, config *nats.ObjectStoreConfig) (nats.ObjectStore, error) {
	osb, err := osm.ObjectStore(config.Bucket)
	if bucketMissing(err) {
		return osm.CreateObjectStore(config)
	}
	return osb, err
}

func CreateOrGetKeyValueStoreBucket(kvm nats.KeyValueManager, config *nats.KeyValueConfig) (nats.KeyValue, error) {
	kv, err := kvm.KeyValue(config.Bucket)
	if bucketMissing(err) {
		return kvm.CreateKeyValue(config)
	}
	return kv, err
}
