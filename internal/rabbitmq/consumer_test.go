package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openChannel(t *testing.T) *amqp.Channel {
	t.Helper()
	conn, err := Connect(startBroker(t), 3, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ch, err := conn.Channel()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })
	return ch
}

func TestConsumerMessage_HandleMessages(t *testing.T) {
	ch := openChannel(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	queueName := "consumer-test"
	_, err := ch.QueueDeclare(queueName, false, true, false, false, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)

	received := make([]string, 0)
	var mu sync.Mutex

	handler := func(_ context.Context, body []byte) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, string(body))
		wg.Done()
		return nil
	}

	err = ConsumerMessage(ctx, newNoopLogger(), ch, queueName, handler)
	require.NoError(t, err)

	for _, msg := range []string{"hello", "world"} {
		err := ch.Publish("", queueName, false, false, amqp.Publishing{
			ContentType: "text/plain",
			Body:        []byte(msg),
		})
		require.NoError(t, err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Timeout waiting for messages to be processed")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"hello", "world"}, received)
}

func TestConsumerMessage_HandlerErrorTriggersRedelivery(t *testing.T) {
	ch := openChannel(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	queueName := "nack-test"
	_, err := ch.QueueDeclare(queueName, false, true, false, false, nil)
	require.NoError(t, err)

	// Первая обработка падает, вторая успешна: сообщение должно вернуться в очередь.
	var attempts atomic.Int32
	done := make(chan struct{})
	handler := func(_ context.Context, body []byte) error {
		if attempts.Add(1) == 1 {
			return fmt.Errorf("fail")
		}
		assert.Equal(t, "bad", string(body))
		close(done)
		return nil
	}

	err = ConsumerMessage(ctx, newNoopLogger(), ch, queueName, handler)
	require.NoError(t, err)

	err = ch.Publish("", queueName, false, false, amqp.Publishing{
		ContentType: "text/plain",
		Body:        []byte("bad"),
	})
	require.NoError(t, err)

	select {
	case <-done:
		assert.Equal(t, int32(2), attempts.Load())
	case <-time.After(10 * time.Second):
		t.Fatal("Did not receive requeued message after Nack")
	}
}
