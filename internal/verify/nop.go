package verify

import (
	"context"
	"errors"
)

// NopBroker always fails dispatch. It stands in when no broker is
// configured (local development without RabbitMQ): every pipeline run then
// degrades to a not-verified result instead of blocking.
type NopBroker struct{}

var errNoBroker = errors.New("verification broker not configured")

func (NopBroker) Dispatch(ctx context.Context, taskID string, req Request) error {
	return errNoBroker
}

func (NopBroker) Result(ctx context.Context, taskID string) (TaskState, []byte, error) {
	return TaskPending, nil, errNoBroker
}

var _ Broker = NopBroker{}
