package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"certificate-backend/internal/shared/telemetry"
)

// resultEnvelope is the message shape the verifier worker publishes to the
// reply queue: the task's terminal status plus its result payload.
type resultEnvelope struct {
	TaskID string          `json:"task_id"`
	Status TaskState       `json:"status"`
	Result json.RawMessage `json:"result"`
}

// AMQPBroker dispatches verification tasks over RabbitMQ and collects
// results from an exclusive reply queue. Each dispatched message carries the
// task id as its correlation id; the worker echoes it back on the reply
// queue, where a consumer goroutine indexes results for the poller.
type AMQPBroker struct {
	conn      *amqp.Connection
	ch        *amqp.Channel
	queue     string
	replyTo   string
	mu        sync.RWMutex
	results   map[string]resultEnvelope
	closeOnce sync.Once
	done      chan struct{}
}

// DialAMQP connects to the broker, declares the task queue, and starts
// consuming the reply queue.
func DialAMQP(url, queue string) (*AMQPBroker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	reply, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare reply queue: %w", err)
	}

	deliveries, err := ch.Consume(reply.Name, "", true, true, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("consume reply queue: %w", err)
	}

	b := &AMQPBroker{
		conn:    conn,
		ch:      ch,
		queue:   queue,
		replyTo: reply.Name,
		results: make(map[string]resultEnvelope),
		done:    make(chan struct{}),
	}
	go b.consume(deliveries)
	return b, nil
}

// Dispatch publishes the request to the task queue with the task id as
// correlation id.
func (b *AMQPBroker) Dispatch(ctx context.Context, taskID string, req Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	err = b.ch.PublishWithContext(ctx, "", b.queue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: taskID,
		MessageId:     taskID,
		ReplyTo:       b.replyTo,
		DeliveryMode:  amqp.Persistent,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", b.queue, err)
	}
	return nil
}

// Result reports the task's current state. A task with no reply yet is
// PENDING. A terminal result is handed out once and its entry dropped; the
// poller stops on the first terminal state, and keeping entries for
// completed tasks would grow the index forever.
func (b *AMQPBroker) Result(ctx context.Context, taskID string) (TaskState, []byte, error) {
	if err := ctx.Err(); err != nil {
		return TaskPending, nil, err
	}

	b.mu.Lock()
	env, ok := b.results[taskID]
	if ok && env.Status.Terminal() {
		delete(b.results, taskID)
	}
	b.mu.Unlock()
	if !ok {
		return TaskPending, nil, nil
	}
	return env.Status, env.Result, nil
}

// Close tears down the channel and connection.
func (b *AMQPBroker) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		if cerr := b.ch.Close(); cerr != nil {
			err = cerr
		}
		if cerr := b.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}

func (b *AMQPBroker) consume(deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-b.done:
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			var env resultEnvelope
			if err := json.Unmarshal(d.Body, &env); err != nil {
				telemetry.Error("verify.reply_decode_failed", map[string]any{
					"correlation_id": d.CorrelationId,
					"error":          err.Error(),
				})
				continue
			}
			taskID := env.TaskID
			if taskID == "" {
				taskID = d.CorrelationId
			}
			if taskID == "" {
				continue
			}
			b.mu.Lock()
			b.results[taskID] = env
			b.mu.Unlock()
		}
	}
}

var _ Broker = (*AMQPBroker)(nil)
