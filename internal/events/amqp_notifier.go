package events

import (
	"context"

	"github.com/nordveldt/userbase/pkg/helpers"
)

// AMQPNotifier publishes user events onto a RabbitMQ queue for out-of-process
// consumers such as the events worker.
type AMQPNotifier struct {
	pub *helpers.RabbitPublisher
}

func NewAMQPNotifier(pub *helpers.RabbitPublisher) *AMQPNotifier {
	return &AMQPNotifier{pub: pub}
}

func (n *AMQPNotifier) Notify(ctx context.Context, ev UserEvent) error {
	return n.pub.PublishJSON(ctx, ev)
}
