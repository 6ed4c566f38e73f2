package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oksasatya/social-account-service/internal/application"
)

// Task is the message body on the task queue.
type Task struct {
	Name       string          `json:"name"`
	Args       json.RawMessage `json:"args"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

type TaskQueue struct {
	Pub Publisher
}

func NewTaskQueue(pub Publisher) *TaskQueue {
	return &TaskQueue{Pub: pub}
}

func (q *TaskQueue) Enqueue(ctx context.Context, name string, args any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode task %s: %w", name, err)
	}
	t := Task{Name: name, Args: raw, EnqueuedAt: time.Now().UTC()}
	if err := q.Pub.PublishJSON(ctx, t); err != nil {
		return fmt.Errorf("publish task %s: %w", name, err)
	}
	return nil
}

// Handler runs one task's args.
type Handler func(ctx context.Context, args json.RawMessage) error

// Dispatcher routes decoded tasks to handlers by name.
type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[string]Handler{}}
}

func (d *Dispatcher) Handle(name string, h Handler) {
	d.handlers[name] = h
}

var (
	// ErrUnknownTask is returned for tasks no handler is registered for.
	ErrUnknownTask   = errors.New("unknown task")
	ErrMalformedTask = errors.New("malformed task")
)

// Dispatch decodes body and runs the matching handler.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte) error {
	var t Task
	if err := json.Unmarshal(body, &t); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedTask, err)
	}
	h, ok := d.handlers[t.Name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, t.Name)
	}
	return h(ctx, t.Args)
}

var _ application.TaskQueue = (*TaskQueue)(nil)
