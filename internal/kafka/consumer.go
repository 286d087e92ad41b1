package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/RaikyD/food-orders-service/internal/application"
	"github.com/RaikyD/food-orders-service/internal/domain"
	"github.com/RaikyD/food-orders-service/internal/logger"
)

type ConsumerConfig struct {
	Brokers string
	Topic   string
	GroupID string
	// Delay is how long after a failed refund the retry is attempted.
	Delay time.Duration
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type RefundRetrier interface {
	RetryRefund(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

// RefundWorker consumes order events and re-issues refunds that failed.
type RefundWorker struct {
	r       messageReader
	svc     RefundRetrier
	delay   time.Duration
	backoff time.Duration
	now     func() time.Time
}

func NewRefundWorker(svc RefundRetrier, cfg ConsumerConfig) *RefundWorker {
	brokers := strings.Split(cfg.Brokers, ",")

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         brokers,
		GroupID:         cfg.GroupID,
		Topic:           cfg.Topic,
		MinBytes:        1,
		MaxBytes:        10e6,
		CommitInterval:  0,
		StartOffset:     kafka.FirstOffset,
		ReadLagInterval: -1,
	})
	logger.Info("kafka consumer starting", "brokers", cfg.Brokers, "topic", cfg.Topic, "group", cfg.GroupID)
	return newRefundWorker(r, svc, cfg.Delay)
}

func newRefundWorker(r messageReader, svc RefundRetrier, delay time.Duration) *RefundWorker {
	return &RefundWorker{
		r:       r,
		svc:     svc,
		delay:   delay,
		backoff: 300 * time.Millisecond,
		now:     time.Now,
	}
}

// Run blocks until ctx is cancelled. A message is committed once it has been
// handled or found unusable; transient failures are retried in place.
func (w *RefundWorker) Run(ctx context.Context) error {
	defer w.r.Close()

	for {
		m, err := w.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("kafka fetch error", "err", err)
			if !sleep(ctx, w.backoff) {
				return nil
			}
			continue
		}

		for {
			err = w.handle(ctx, m)
			if err == nil {
				break
			}
			logger.Warn("refund retry failed, will retry", "offset", m.Offset, "err", err)
			if !sleep(ctx, w.backoff) {
				return nil
			}
		}

		if err := w.r.CommitMessages(ctx, m); err != nil {
			logger.Warn("[kafka] commit failed", "err", err)
		}
	}
}

func (w *RefundWorker) handle(ctx context.Context, m kafka.Message) error {
	var ev application.OrderEvent
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		logger.Warn("kafka invalid json. skip and commit", "offset", m.Offset, "err", err)
		return nil
	}
	if ev.Type != application.EventRefundFailed {
		return nil
	}

	if wait := ev.OccurredAt.Add(w.delay).Sub(w.now()); wait > 0 {
		if !sleep(ctx, wait) {
			return ctx.Err()
		}
	}

	o, err := w.svc.RetryRefund(ctx, ev.OrderID)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			logger.Warn("refund retry for unknown order", "order_id", ev.OrderID)
			return nil
		}
		return err
	}
	if o.Cancellation != nil && o.Cancellation.RefundStatus != nil {
		logger.Info("refund retry handled", "order_id", o.ID, "refund_status", *o.Cancellation.RefundStatus)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
