package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler returns nil only when the message has been fully processed and the
// offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 200 * time.Millisecond
)

type Consumer struct {
	r           *kafka.Reader
	workers     int
	maxAttempts int
	backoff     time.Duration
	deadLetter  Publisher
	log         *zap.Logger
}

// NewConsumer reads one topic with manual offset commits. A message whose
// handler keeps failing after maxAttempts is published to the dead-letter
// producer (when configured) and then committed, so the partition never wedges.
func NewConsumer(brokers []string, group, topic string, workers int, deadLetter Publisher, log *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{
		r:           r,
		workers:     workers,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		deadLetter:  deadLetter,
		log:         log,
	}
}

// Start reads until the context is cancelled or the reader fails. It returns
// only after every in-flight handler finished, so callers can tear down the
// producers the handlers publish to without racing them.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	jobs := make(chan kafka.Message, 1024)
	var wg sync.WaitGroup

	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				c.handleWithRetry(ctx, h, m)
				if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
					c.log.Error("commit failed", zap.Error(err))
				}
			}
		}()
	}

	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			close(jobs)
			wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case jobs <- m:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, h Handler, m kafka.Message) {
	err := retryHandler(ctx, h, m, c.maxAttempts, c.backoff)
	if err == nil {
		return
	}
	c.log.Error("handler exhausted retries",
		zap.String("topic", m.Topic),
		zap.ByteString("key", m.Key),
		zap.Int("attempts", c.maxAttempts),
		zap.Error(err))
	if c.deadLetter != nil {
		c.deadLetter.Publish(m.Key, m.Value,
			kafka.Header{Key: "x-origin-topic", Value: []byte(m.Topic)},
			kafka.Header{Key: "x-error", Value: []byte(err.Error())},
		)
	}
}

func retryHandler(ctx context.Context, h Handler, m kafka.Message, attempts int, backoff time.Duration) error {
	var err error
	for i := 1; i <= attempts; i++ {
		if err = h(ctx, m); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		select {
		case <-time.After(time.Duration(i) * backoff):
		case <-ctx.Done():
			return err
		}
	}
	return err
}
