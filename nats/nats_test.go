package nats

import (
	"context"
	"errors"
	"testing"
	"time"

	"eztools/common"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func runJetStream(t *testing.T) nats.JetStreamContext {
	t.Helper()
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	srv := natsserver.RunServer(&opts)
	t.Cleanup(srv.Shutdown)

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	js, err := nc.JetStream()
	require.NoError(t, err)
	return js
}

func TestSetup_Idempotent(t *testing.T) {
	js := runJetStream(t)
	streamConfig := &nats.StreamConfig{Name: "S", Subjects: []string{"S.>"}, Retention: nats.WorkQueuePolicy}
	consumerConfig := &nats.ConsumerConfig{Durable: "c", AckPolicy: nats.AckExplicitPolicy, AckWait: time.Minute}

	for i := 0; i < 2; i++ {
		_, err := SetStream(js, streamConfig)
		require.NoError(t, err)
		_, err = SetConsumer(js, "S", consumerConfig)
		require.NoError(t, err)
		_, err = CreateOrGetObjectStoreBucket(js, &nats.ObjectStoreConfig{Bucket: "files"})
		require.NoError(t, err)
		_, err = CreateOrGetKeyValueStoreBucket(js, &nats.KeyValueConfig{Bucket: "status"})
		require.NoError(t, err)
	}

	streamConfig.Subjects = []string{"S.>", "T.>"}
	info, err := SetStream(js, streamConfig)
	require.NoError(t, err)
	assert.Equal(t, []string{"S.>", "T.>"}, info.Config.Subjects)
}

func TestObjects(t *testing.T) {
	js := runJetStream(t)
	osb, err := CreateOrGetObjectStoreBucket(js, &nats.ObjectStoreConfig{Bucket: "files"})
	require.NoError(t, err)
	serializer := &common.JsonSerializer[record]{}

	info, err := TypedRobustPutObjectRandomName(osb, &record{Name: "a", Count: 1}, serializer)
	require.NoError(t, err)
	got, err := TypedRobustGetObject(osb, info.Name, serializer)
	require.NoError(t, err)
	assert.Equal(t, &record{Name: "a", Count: 1}, got)

	path := t.TempDir() + "/copy"
	require.NoError(t, RobustGetObjectFile(osb, info.Name, path))
	uploaded, err := RobustPutObjectFile(osb, path, "copy")
	require.NoError(t, err)
	assert.Equal(t, info.Size, uploaded.Size)

	_, err = RobustGetObjectBytes(osb, "missing")
	assert.ErrorIs(t, err, nats.ErrObjectNotFound)
}

func TestKeyValueCAS(t *testing.T) {
	js := runJetStream(t)
	kv, err := CreateOrGetKeyValueStoreBucket(js, &nats.KeyValueConfig{Bucket: "status"})
	require.NoError(t, err)
	kvb := NewKeyValueTypedWrapper[record](kv, &common.JsonSerializer[record]{})

	_, err = kvb.Get("k")
	assert.ErrorIs(t, err, nats.ErrKeyNotFound)

	rev, err := kvb.Create("k", &record{Name: "k"})
	require.NoError(t, err)
	_, err = kvb.Create("k", &record{Name: "again"})
	assert.Error(t, err)

	_, err = kvb.Update("k", &record{Name: "k", Count: 5}, rev+10)
	assert.ErrorIs(t, err, common.ErrWrongRevNumber)

	// a concurrent writer forces one retry
	raced := false
	value, _, err := kvb.CAS("k",
		func(cur *record) (bool, error) { return cur.Count >= 2, nil },
		func(cur *record) error {
			if !raced {
				raced = true
				_, err := kvb.Update("k", &record{Name: "k", Count: 1}, rev)
				require.NoError(t, err)
			}
			cur.Count++
			return nil
		},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, value.Count)

	value, _, err = kvb.CAS("k",
		func(cur *record) (bool, error) { return cur.Count >= 2, nil },
		func(cur *record) error { return errors.New("must not be called") },
	)
	require.NoError(t, err)
	assert.Equal(t, 2, value.Count)
}

func TestPublishAndFetch(t *testing.T) {
	js := runJetStream(t)
	_, err := SetStream(js, &nats.StreamConfig{Name: "S", Subjects: []string{"S.>"}, Retention: nats.WorkQueuePolicy})
	require.NoError(t, err)
	_, err = SetConsumer(js, "S", &nats.ConsumerConfig{Durable: "c", AckPolicy: nats.AckExplicitPolicy})
	require.NoError(t, err)

	publisher := NewPublisherWrapper[record](js, &common.JsonSerializer[record]{})
	require.NoError(t, publisher.PublishSync("S.tasks", &record{Name: "first"}))
	_, err = RobustPublishSync(js, "S.tasks", []byte("not json"))
	require.NoError(t, err)

	sub, err := js.PullSubscribe("", "c", nats.Bind("S", "c"))
	require.NoError(t, err)
	typed := NewSubscriptionWrapper[record](sub, &common.JsonSerializer[record]{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	msgs, err := typed.Fetch(2, ctx)
	assert.Error(t, err, "undecodable message is reported")
	require.Len(t, msgs, 1)
	assert.Equal(t, "first", msgs[0].Content().Name)
	require.NoError(t, msgs[0].AckInProgress())
	require.NoError(t, msgs[0].Ack())

	info, err := js.ConsumerInfo("S", "c")
	require.NoError(t, err)
	assert.Zero(t, info.NumAckPending)

	short, cancelShort := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancelShort()
	_, err = typed.Fetch(1, short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
