package helpers

import (
	"errors"
	"fmt"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

type recordingAck struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (r *recordingAck) Ack(uint64, bool) error { r.acked = true; return nil }

func (r *recordingAck) Nack(_ uint64, _ bool, requeue bool) error {
	r.nacked, r.requeue = true, requeue
	return nil
}

func (r *recordingAck) Reject(_ uint64, requeue bool) error {
	r.nacked, r.requeue = true, requeue
	return nil
}

func TestRabbitConsumer_Settle(t *testing.T) {
	c := &RabbitConsumer{Queue: "tasks", Logger: NewDiscardLogger()}
	cases := []struct {
		name    string
		err     error
		acked   bool
		requeue bool
	}{
		{"success acks", nil, true, false},
		{"drop discards", errors.Join(errors.New("bad json"), ErrDrop), false, false},
		{"wrapped drop discards", fmt.Errorf("handler: %w", ErrDrop), false, false},
		{"other errors requeue", errors.New("db down"), false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ack := &recordingAck{}
			c.settle(amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, MessageId: "m1"}, tc.err)
			assert.Equal(t, tc.acked, ack.acked)
			assert.Equal(t, !tc.acked, ack.nacked)
			assert.Equal(t, tc.requeue, ack.requeue)
		})
	}
}
