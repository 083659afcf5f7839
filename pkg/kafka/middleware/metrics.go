package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"fleetbook/pkg/kafka"
)

const (
	Publish = "publish"
	Consume = "consume"
)

// Metrics counts messages per direction. The zero value is ready to use.
type Metrics struct {
	published       atomic.Int64
	publishFailed   atomic.Int64
	publishDuration atomic.Int64
	consumed        atomic.Int64
	consumeFailed   atomic.Int64
	consumeDuration atomic.Int64
}

type MetricsSnapshot struct {
	Published          int64         `json:"published"`
	PublishFailed      int64         `json:"publish_failed"`
	AvgPublishDuration time.Duration `json:"avg_publish_duration"`
	Consumed           int64         `json:"consumed"`
	ConsumeFailed      int64         `json:"consume_failed"`
	AvgConsumeDuration time.Duration `json:"avg_consume_duration"`
}

func (m *Metrics) Producer() kafka.Middleware {
	return m.middleware(&m.published, &m.publishFailed, &m.publishDuration)
}

func (m *Metrics) Consumer() kafka.Middleware {
	return m.middleware(&m.consumed, &m.consumeFailed, &m.consumeDuration)
}

func (m *Metrics) middleware(ok, failed, total *atomic.Int64) kafka.Middleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		total.Add(int64(time.Since(start)))
		if err != nil {
			failed.Add(1)
		} else {
			ok.Add(1)
		}
		return err
	}
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Published:     m.published.Load(),
		PublishFailed: m.publishFailed.Load(),
		Consumed:      m.consumed.Load(),
		ConsumeFailed: m.consumeFailed.Load(),
	}
	if n := s.Published + s.PublishFailed; n > 0 {
		s.AvgPublishDuration = time.Duration(m.publishDuration.Load() / n)
	}
	if n := s.Consumed + s.ConsumeFailed; n > 0 {
		s.AvgConsumeDuration = time.Duration(m.consumeDuration.Load() / n)
	}
	return s
}
