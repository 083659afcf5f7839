package events

import (
	"context"
	"fmt"
	"time"

	"fleetbook/pkg/conflict"
	"fleetbook/pkg/kafka"
	"fleetbook/pkg/logger"
	"fleetbook/pkg/model"
)

const (
	EventConfirmed       = "reservation.confirmed"
	EventConfirmRejected = "reservation.confirm_rejected"
	EventRescheduled     = "reservation.rescheduled"
	EventUnconfirmable   = "reservation.unconfirmable"

	SchemaVersion = "1"
)

// ReservationEvent is the payload of every event except EventUnconfirmable.
type ReservationEvent struct {
	ReservationID string            `json:"reservation_id"`
	ResourceID    string            `json:"resource_id"`
	PickupAt      time.Time         `json:"pickup_at"`
	ReturnAt      time.Time         `json:"return_at"`
	Status        string            `json:"status"`
	Severity      conflict.Severity `json:"severity"`
	Message       string            `json:"message,omitempty"`
	Facts         []conflict.Fact   `json:"facts,omitempty"`
}

// UnconfirmableEvent tells the notification collaborator that a pending
// reservation can no longer be confirmed.
type UnconfirmableEvent struct {
	ReservationID          string        `json:"reservation_id"`
	ResourceID             string        `json:"resource_id"`
	ConfirmedReservationID string        `json:"confirmed_reservation_id"`
	Blocking               conflict.Fact `json:"blocking_fact"`
	Message                string        `json:"message"`
	DisplayName            string        `json:"display_name,omitempty"`
	ContactEmail           string        `json:"contact_email,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type Notifier interface {
	Confirmed(ctx context.Context, r *model.Reservation, result conflict.Result) error
	ConfirmRejected(ctx context.Context, r *model.Reservation, result conflict.Result) error
	Rescheduled(ctx context.Context, r *model.Reservation, result conflict.Result) error
	Unconfirmable(ctx context.Context, event UnconfirmableEvent) error
}

type kafkaNotifier struct {
	publisher Publisher
	source    string
}

func NewKafkaNotifier(publisher Publisher, source string) Notifier {
	return &kafkaNotifier{publisher: publisher, source: source}
}

func (n *kafkaNotifier) Confirmed(ctx context.Context, r *model.Reservation, result conflict.Result) error {
	return n.publish(ctx, EventConfirmed, r.ResourceID, newReservationEvent(r, result))
}

func (n *kafkaNotifier) ConfirmRejected(ctx context.Context, r *model.Reservation, result conflict.Result) error {
	return n.publish(ctx, EventConfirmRejected, r.ResourceID, newReservationEvent(r, result))
}

func (n *kafkaNotifier) Rescheduled(ctx context.Context, r *model.Reservation, result conflict.Result) error {
	return n.publish(ctx, EventRescheduled, r.ResourceID, newReservationEvent(r, result))
}

func (n *kafkaNotifier) Unconfirmable(ctx context.Context, event UnconfirmableEvent) error {
	return n.publish(ctx, EventUnconfirmable, event.ReservationID, event)
}

func (n *kafkaNotifier) publish(ctx context.Context, eventType, key string, payload any) error {
	msg, err := kafka.NewMessage().
		WithKey(key).
		WithValue(payload).
		WithEventType(eventType).
		WithCorrelationID(logger.RequestIDFrom(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(n.source).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", eventType, err)
	}
	if err := n.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

func newReservationEvent(r *model.Reservation, result conflict.Result) ReservationEvent {
	return ReservationEvent{
		ReservationID: r.ID,
		ResourceID:    r.ResourceID,
		PickupAt:      r.PickupAt,
		ReturnAt:      r.ReturnAt,
		Status:        r.Status,
		Severity:      result.Severity,
		Message:       result.Message,
		Facts:         result.Facts,
	}
}

// NopNotifier drops every event. It is used when Kafka is disabled.
type NopNotifier struct{}

func (NopNotifier) Confirmed(context.Context, *model.Reservation, conflict.Result) error {
	return nil
}

func (NopNotifier) ConfirmRejected(context.Context, *model.Reservation, conflict.Result) error {
	return nil
}

func (NopNotifier) Rescheduled(context.Context, *model.Reservation, conflict.Result) error {
	return nil
}

func (NopNotifier) Unconfirmable(context.Context, UnconfirmableEvent) error {
	return nil
}
