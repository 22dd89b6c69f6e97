package bus

import "context"

type Keyer interface {
	PartitionKey() string
}

// La semántica de topic/nombre y formato del payload la deciden los adapters.
type EventBus interface {
	Publish(ctx context.Context, event interface{}) error
}

// MessageHandler es cualquier consumidor de mensajes crudos del bus.
type MessageHandler interface {
	HandleMessage(ctx context.Context, key string, payload []byte)
}
