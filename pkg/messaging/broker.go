package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Consume subscribes to channel and hands every payload to handler until ctx
// is done or the subscription closes. Handler errors go to onErr and do not
// stop consumption.
func Consume(ctx context.Context, broker Broker, channel string, handler func([]byte) error, onErr func(error)) error {
	msgs, err := broker.Subscribe(ctx, channel)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			if err := handler(msg); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}()

	return nil
}
