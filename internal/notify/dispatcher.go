package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const defaultSinkTimeout = 5 * time.Second

// Dispatcher queues notifications and delivers them to every sink from a
// single background goroutine.
type Dispatcher struct {
	queue       chan Notification
	sinks       []Sink
	logger      *zap.Logger
	sinkTimeout time.Duration
	now         func() time.Time
}

func NewDispatcher(logger *zap.Logger, queueSize int, sinks ...Sink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Dispatcher{
		queue:       make(chan Notification, queueSize),
		sinks:       sinks,
		logger:      logger.Named("notify"),
		sinkTimeout: defaultSinkTimeout,
		now:         time.Now,
	}
}

// Notify enqueues msg for target. When the queue is full the notification is
// dropped and logged.
func (d *Dispatcher) Notify(_ context.Context, target Target, msg Message) {
	n := Notification{
		Room:        target.Room(),
		Title:       msg.Title,
		Description: msg.Description,
		CreatedAt:   d.now().UTC(),
	}
	select {
	case d.queue <- n:
	default:
		d.logger.Warn("notification dropped, queue full",
			zap.String("room", n.Room),
			zap.String("title", n.Title),
		)
	}
}

// Run delivers queued notifications until ctx is cancelled, then flushes
// whatever is still buffered.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case n := <-d.queue:
			d.deliver(n)
		case <-ctx.Done():
			for {
				select {
				case n := <-d.queue:
					d.deliver(n)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(n Notification) {
	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.sinkTimeout)
		err := sink.Deliver(ctx, n)
		cancel()
		if err != nil {
			d.logger.Error("notification sink failed",
				zap.String("room", n.Room),
				zap.String("title", n.Title),
				zap.Error(err),
			)
		}
	}
}
