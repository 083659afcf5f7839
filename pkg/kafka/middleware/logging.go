package kafka_middleware

import (
	"context"
	"time"

	"fleetbook/pkg/kafka"
	"fleetbook/pkg/logger"
)

func Logging(log *logger.Logger, direction string) kafka.Middleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)

		attrs := []any{
			"direction", direction,
			"topic", msg.Topic,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"correlation_id", msg.GetCorrelationID(),
			"duration", time.Since(start),
		}
		if direction == Consume {
			attrs = append(attrs, "partition", msg.Partition, "offset", msg.Offset)
		}

		if err != nil {
			log.Error("Kafka message failed", append(attrs, "error", err)...)
			return err
		}
		log.Debug("Kafka message handled", attrs...)
		return nil
	}
}
