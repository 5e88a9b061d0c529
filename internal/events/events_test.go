package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPublisherWithoutBrokersLogsOnly(t *testing.T) {
	p := NewPublisher(" , ")
	_, ok := p.(LogPublisher)
	assert.True(t, ok)
	assert.NoError(t, p.Close())
}

func TestNewPublisherWithBrokers(t *testing.T) {
	p := NewPublisher("localhost:9092")
	kp, ok := p.(*KafkaPublisher)
	assert.True(t, ok)
	assert.Equal(t, Topic, kp.writer.Topic)
	assert.True(t, kp.writer.Async)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Publish(context.Background(), OrderCommitted, "o1", map[string]any{"order_id": "o1"})
	r.Publish(context.Background(), PaymentOrphaned, "pay_1", nil)

	assert.Equal(t, []string{OrderCommitted, PaymentOrphaned}, r.Types())
	assert.NotEmpty(t, r.Events()[0].EventID)
}
