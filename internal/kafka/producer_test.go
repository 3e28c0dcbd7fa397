package kafka

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestProducer_CheckConnectionWithoutBrokers(t *testing.T) {
	p := NewProducer(nil, quietLogger())
	defer p.Close()

	err := p.CheckConnection(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no kafka brokers")
}

func TestProducer_PublishRejectsUnencodablePayload(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, quietLogger())
	defer p.Close()

	err := p.Publish(context.Background(), "notifications", "key", make(chan int))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal payload")
}

func TestConsumer_CloseNil(t *testing.T) {
	var c *Consumer
	assert.NoError(t, c.Close())
}
