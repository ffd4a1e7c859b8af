package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_RoutesByKey(t *testing.T) {
	amqpURI := startBroker(t)

	conn, err := Connect(amqpURI, 3, time.Second)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	ch, err := SetupChannel(conn, ExchangeLicenses, LicenseQueues())
	require.NoError(t, err)
	defer func() { _ = ch.Close() }()
	_, err = ch.QueuePurge(QueueUnreconciled, false)
	require.NoError(t, err)

	type record struct {
		EventID string `json:"event_id"`
	}

	pub := NewPublisher(ch, ExchangeLicenses)
	require.NoError(t, pub.Publish(context.Background(), RoutingKeyUnreconciled, record{EventID: "e-1"}))

	deliveries, err := ch.Consume(QueueUnreconciled, "test-consumer", true, false, false, false, nil)
	require.NoError(t, err)

	select {
	case d := <-deliveries:
		var got record
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, "e-1", got.EventID)
		assert.Equal(t, "application/json", d.ContentType)
		assert.Equal(t, amqp.Persistent, d.DeliveryMode)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublisher_CanceledContext(t *testing.T) {
	pub := NewPublisher(nil, ExchangeLicenses)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pub.Publish(ctx, RoutingKeyActivated, struct{}{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublishMessage_Unmarshalable(t *testing.T) {
	err := PublishMessage(nil, ExchangeLicenses, RoutingKeyActivated, make(chan int))
	assert.Error(t, err)
}
