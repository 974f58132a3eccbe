package nats

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"time"

	"eztools/common"

	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"
)

const maxRetryTime = 2 * time.Minute

// transientErrors are retried, anything else is returned right away.
var transientErrors = []error{nats.ErrTimeout, nats.ErrConsumerLeadershipChanged, nats.ErrNoResponders}

func isTransient(err error) bool {
	for _, e := range transientErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func newBackOff(ctx context.Context) backoff.BackOff {
	back := backoff.NewExponentialBackOff()
	back.MaxElapsedTime = maxRetryTime
	if ctx == nil {
		return back
	}
	return backoff.WithContext(back, ctx)
}

func retryValue[T any](ctx context.Context, action func() (T, error)) (T, error) {
	var ret T
	err := backoff.Retry(
		func() error {
			v, err := action()
			if err == nil {
				ret = v
				return nil
			}
			if isTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		},
		newBackOff(ctx),
	)
	return ret, err
}

func retry(ctx context.Context, action func() error) error {
	_, err := retryValue(ctx, func() (struct{}, error) {
		return struct{}{}, action()
	})
	return err
}

func RobustPublishSync(js nats.JetStream, subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error) {
	return retryValue(nil, func() (*nats.PubAck, error) {
		return js.Publish(subj, data, opts...)
	})
}

func RobustFetch(sub *nats.Subscription, n int, ctx context.Context, opts ...nats.PullOpt) ([]*nats.Msg, error) {
	return retryValue(ctx, func() ([]*nats.Msg, error) {
		return sub.Fetch(n, append(opts, nats.Context(ctx))...)
	})
}

func RobustGetObjectFile(osb nats.ObjectStore, id string, filePath string, opts ...nats.GetObjectOpt) error {
	return retry(nil, func() error {
		return osb.GetFile(id, filePath, opts...)
	})
}

func RobustGetObjectBytes(osb nats.ObjectStore, id string, opts ...nats.GetObjectOpt) ([]byte, error) {
	return retryValue(nil, func() ([]byte, error) {
		return osb.GetBytes(id, opts...)
	})
}

// RobustPutObject buffers object so that every attempt uploads the full content.
func RobustPutObject(osb nats.ObjectStore, object io.Reader, objectName string, opts ...nats.ObjectOpt) (*nats.ObjectInfo, error) {
	data, err := io.ReadAll(object)
	if err != nil {
		return nil, err
	}
	return RobustPutObjectBytes(osb, data, objectName, opts...)
}

func RobustPutObjectBytes(osb nats.ObjectStore, data []byte, objectName string, opts ...nats.ObjectOpt) (*nats.ObjectInfo, error) {
	return retryValue(nil, func() (*nats.ObjectInfo, error) {
		return osb.Put(&nats.ObjectMeta{Name: objectName}, bytes.NewReader(data), opts...)
	})
}

// RobustPutObjectFile reopens the file for every attempt.
func RobustPutObjectFile(osb nats.ObjectStore, filePath string, objectName string, opts ...nats.ObjectOpt) (*nats.ObjectInfo, error) {
	return retryValue(nil, func() (*nats.ObjectInfo, error) {
		file, err := os.Open(filePath)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return osb.Put(&nats.ObjectMeta{Name: objectName}, file, opts...)
	})
}

func RobustPutObjectRandomName(osb nats.ObjectStore, object io.Reader, opts ...nats.ObjectOpt) (*nats.ObjectInfo, error) {
	return RobustPutObject(osb, object, common.GetRandomId(), opts...)
}

func RobustGetKVEntry(kvb nats.KeyValue, key string) (nats.KeyValueEntry, error) {
	return retryValue(nil, func() (nats.KeyValueEntry, error) {
		return kvb.Get(key)
	})
}

func RobustCreateKVEntry(kvb nats.KeyValue, key string, value []byte) (uint64, error) {
	return retryValue(nil, func() (uint64, error) {
		return kvb.Create(key, value)
	})
}

func RobustUpdateKVEntry(kvb nats.KeyValue, key string, last uint64, newVal []byte) (uint64, error) {
	return retryValue(nil, func() (uint64, error) {
		return kvb.Update(key, newVal, last)
	})
}
