//go:build integration

package rabbitmq_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"catalog/pkg/rabbitmq"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

func startBroker(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.13-alpine",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor:   wait.ForLog("Server startup complete").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672")
	require.NoError(t, err)
	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())
}

func TestClient_PublishAndConsume(t *testing.T) {
	url := startBroker(t)

	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: url, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	defer client.Close()

	received := make(chan amqp.Delivery, 1)
	err = client.ConsumeProductEvents("catalog-test", "product.stock.*", func(msg amqp.Delivery) error {
		received <- msg
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, client.Publish("product.created", []byte(`{"type":"product.created"}`)))
	require.NoError(t, client.Publish("product.stock.low", []byte(`{"type":"product.stock.low"}`)))

	select {
	case msg := <-received:
		assert.Equal(t, "product.stock.low", msg.RoutingKey)
		assert.JSONEq(t, `{"type":"product.stock.low"}`, string(msg.Body))
	case <-time.After(10 * time.Second):
		t.Fatal("no message received")
	}
}

func TestClient_PublishAfterClose(t *testing.T) {
	url := startBroker(t)

	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: url})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	assert.ErrorIs(t, client.Publish("product.created", nil), rabbitmq.ErrClosed)
}
