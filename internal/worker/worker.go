package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	booking "github.com/duaneandrea/digitalk-test/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

// Source is the broker side of the worker
type Source interface {
	Qos(prefetchCount int) error
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// EventProcessor handles one decoded lifecycle event
type EventProcessor interface {
	Process(ctx context.Context, event booking.Event) error
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	Source        Source
	Processor     EventProcessor
	WorkerID      string
	Concurrency   int
	MaxEvents     int
	PrefetchCount int
	EventTimeout  time.Duration
}

// eventMessage pairs a decoded event with the delivery it arrived on
type eventMessage struct {
	event    booking.Event
	delivery amqp.Delivery
}

// Worker consumes lifecycle events and fans them out to a goroutine pool
type Worker struct {
	logger        *slog.Logger
	source        Source
	processor     EventProcessor
	workerID      string
	concurrency   int
	prefetchCount int
	eventTimeout  time.Duration
	eventsChan    chan *eventMessage
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	workerID := cfg.WorkerID
	if workerID == "" {
		hostname, _ := os.Hostname()
		workerID = fmt.Sprintf("worker-%s-%d", hostname, os.Getpid())
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = concurrency
	}

	return &Worker{
		logger:        cfg.Logger.With(slog.String("worker_id", workerID)),
		source:        cfg.Source,
		processor:     cfg.Processor,
		workerID:      workerID,
		concurrency:   concurrency,
		prefetchCount: prefetch,
		eventTimeout:  cfg.EventTimeout,
		eventsChan:    make(chan *eventMessage, max(cfg.MaxEvents, 0)),
	}
}

// Run consumes until ctx is canceled or the delivery channel closes
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.Int("concurrency", w.concurrency),
		slog.Int("prefetch_count", w.prefetchCount),
		slog.Duration("event_timeout", w.eventTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(w.eventsChan)
		w.startMessageDispatcher(gctx, deliveries)
		return nil
	})

	for i := 0; i < w.concurrency; i++ {
		workerNum := i
		g.Go(func() error {
			w.workerLoop(gctx, workerNum)
			return nil
		})
	}

	err = g.Wait()
	w.logger.Info("Worker stopped")
	return err
}
