package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleetbook/internal/reservations/repository"
	"fleetbook/pkg/config"
	"fleetbook/pkg/conflict"
	"fleetbook/pkg/db/sqlite"
	"fleetbook/pkg/kafka"
	"fleetbook/pkg/logger"
	"fleetbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

type recordingPublisher struct {
	messages []kafka.Message
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, msg kafka.Message) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

type recordingNotifier struct {
	NopNotifier
	unconfirmable []UnconfirmableEvent
	err           error
}

func (n *recordingNotifier) Unconfirmable(_ context.Context, event UnconfirmableEvent) error {
	if n.err != nil {
		return n.err
	}
	n.unconfirmable = append(n.unconfirmable, event)
	return nil
}

type failingRepository struct {
	repository.ReservationRepository
	err error
}

func (r *failingRepository) FindByResource(context.Context, string, *time.Time, *time.Time) ([]*model.Reservation, error) {
	return nil, r.err
}

type workerFixture struct {
	repo     repository.ReservationRepository
	notifier *recordingNotifier
	cfg      *config.Config
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()
	return &workerFixture{
		repo:     repository.NewSQLiteReservationRepository(sqlite.OpenTest(t, repository.SQLiteSchema)),
		notifier: &recordingNotifier{},
		cfg:      &config.Config{Log: logger.Discard(), BufferHours: 2},
	}
}

func (f *workerFixture) insert(t *testing.T, status, pickup, ret, name string) *model.Reservation {
	t.Helper()
	r := &model.Reservation{
		ResourceID:   "CAR-1",
		PickupAt:     at(pickup),
		ReturnAt:     at(ret),
		Status:       status,
		DisplayName:  name,
		ContactEmail: "driver@example.com",
	}
	require.NoError(t, f.repo.Create(context.Background(), r))
	return r
}

func confirmedMessage(t *testing.T, r *model.Reservation) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().
		WithKey(r.ResourceID).
		WithValue(newReservationEvent(r, conflict.Result{CanProceed: true})).
		WithEventType(EventConfirmed).
		WithCorrelationID("req-1").
		Build()
	require.NoError(t, err)
	return msg
}

func TestWorker_NotifiesBlockedPendingSiblings(t *testing.T) {
	f := newWorkerFixture(t)
	confirmed := f.insert(t, model.StatusConfirmed, "2025-01-01T14:00", "2025-01-03T12:00", "Alice Martin")
	blocked := f.insert(t, model.StatusPending, "2025-01-03T13:00", "2025-01-05T10:00", "Bob Stone")
	f.insert(t, model.StatusPending, "2025-01-10T10:00", "2025-01-10T12:00", "Far Away")
	f.insert(t, model.StatusCancelled, "2025-01-02T10:00", "2025-01-02T12:00", "Gone")

	worker := NewWorker(f.repo, f.notifier, f.cfg)
	require.NoError(t, worker.Handle(context.Background(), confirmedMessage(t, confirmed)))

	require.Len(t, f.notifier.unconfirmable, 1)
	event := f.notifier.unconfirmable[0]
	assert.Equal(t, blocked.ID, event.ReservationID)
	assert.Equal(t, confirmed.ID, event.ConfirmedReservationID)
	assert.Equal(t, "Bob Stone", event.DisplayName)
	assert.Equal(t, confirmed.ID, event.Blocking.OtherReservationID)
	assert.Equal(t, conflict.SeverityBlock, event.Blocking.Severity)
	assert.Equal(t,
		"Conflicts with the confirmed reservation of Alice Martin: pickup at 2025-01-03 13:00 is too close to its return at 2025-01-03 12:00 (gap +1 h, required buffer 2 h).",
		event.Message,
	)
}

func TestWorker_Skips(t *testing.T) {
	ctx := context.Background()

	t.Run("other event types", func(t *testing.T) {
		f := newWorkerFixture(t)
		msg, err := kafka.NewMessage().WithKey("CAR-1").WithValue("x").WithEventType(EventRescheduled).Build()
		require.NoError(t, err)
		assert.NoError(t, NewWorker(f.repo, f.notifier, f.cfg).Handle(ctx, msg))
		assert.Empty(t, f.notifier.unconfirmable)
	})

	t.Run("reservation no longer confirmed", func(t *testing.T) {
		f := newWorkerFixture(t)
		r := f.insert(t, model.StatusPending, "2025-01-01T14:00", "2025-01-03T12:00", "Alice Martin")
		f.insert(t, model.StatusPending, "2025-01-03T13:00", "2025-01-05T10:00", "Bob Stone")
		assert.NoError(t, NewWorker(f.repo, f.notifier, f.cfg).Handle(ctx, confirmedMessage(t, r)))
		assert.Empty(t, f.notifier.unconfirmable)
	})

	t.Run("reservation deleted", func(t *testing.T) {
		f := newWorkerFixture(t)
		r := f.insert(t, model.StatusConfirmed, "2025-01-01T14:00", "2025-01-03T12:00", "Alice Martin")
		require.NoError(t, f.repo.Delete(ctx, r.ID))
		assert.NoError(t, NewWorker(f.repo, f.notifier, f.cfg).Handle(ctx, confirmedMessage(t, r)))
	})
}

func TestWorker_ErrorClassification(t *testing.T) {
	ctx := context.Background()

	t.Run("undecodable payload is permanent", func(t *testing.T) {
		f := newWorkerFixture(t)
		msg := kafka.Message{
			Value:   []byte("{not json"),
			Headers: map[string]string{kafka.HeaderEventType: EventConfirmed},
		}
		err := NewWorker(f.repo, f.notifier, f.cfg).Handle(ctx, msg)
		require.Error(t, err)
		assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))
	})

	t.Run("store failure is transient", func(t *testing.T) {
		f := newWorkerFixture(t)
		r := f.insert(t, model.StatusConfirmed, "2025-01-01T14:00", "2025-01-03T12:00", "Alice Martin")
		repo := &failingRepository{ReservationRepository: f.repo, err: errors.New("disk I/O error")}
		err := NewWorker(repo, f.notifier, f.cfg).Handle(ctx, confirmedMessage(t, r))
		require.Error(t, err)
		assert.Equal(t, kafka.ErrorTypeTransient, kafka.ClassifyError(err))
	})

	t.Run("publish failure is transient", func(t *testing.T) {
		f := newWorkerFixture(t)
		r := f.insert(t, model.StatusConfirmed, "2025-01-01T14:00", "2025-01-03T12:00", "Alice Martin")
		f.insert(t, model.StatusPending, "2025-01-03T13:00", "2025-01-05T10:00", "Bob Stone")
		f.notifier.err = errors.New("broker unavailable")
		err := NewWorker(f.repo, f.notifier, f.cfg).Handle(ctx, confirmedMessage(t, r))
		require.Error(t, err)
		assert.Equal(t, kafka.ErrorTypeTransient, kafka.ClassifyError(err))
	})
}

func TestKafkaNotifier(t *testing.T) {
	ctx := logger.ContextWithRequestID(context.Background(), "req-42")
	r := &model.Reservation{
		ID:         "B",
		ResourceID: "CAR-1",
		PickupAt:   at("2025-01-03T13:00"),
		ReturnAt:   at("2025-01-05T10:00"),
		Status:     model.StatusConfirmed,
	}

	t.Run("reservation events are keyed by resource", func(t *testing.T) {
		pub := &recordingPublisher{}
		n := NewKafkaNotifier(pub, "reservations")
		result := conflict.Result{CanProceed: true, Severity: conflict.SeverityWarning, Message: "overlaps"}
		require.NoError(t, n.Confirmed(ctx, r, result))

		require.Len(t, pub.messages, 1)
		msg := pub.messages[0]
		assert.Equal(t, "CAR-1", msg.Key)
		assert.Equal(t, EventConfirmed, msg.GetEventType())
		assert.Equal(t, "req-42", msg.GetCorrelationID())
		assert.Equal(t, SchemaVersion, msg.Headers[kafka.HeaderSchemaVersion])
		assert.Equal(t, "reservations", msg.Headers[kafka.HeaderSource])

		var event ReservationEvent
		require.NoError(t, msg.DecodeValue(&event))
		assert.Equal(t, "B", event.ReservationID)
		assert.Equal(t, conflict.SeverityWarning, event.Severity)
		assert.Equal(t, "overlaps", event.Message)
	})

	t.Run("unconfirmable events are keyed by reservation", func(t *testing.T) {
		pub := &recordingPublisher{}
		n := NewKafkaNotifier(pub, "conflict-worker")
		require.NoError(t, n.Unconfirmable(ctx, UnconfirmableEvent{ReservationID: "B", ResourceID: "CAR-1"}))
		require.Len(t, pub.messages, 1)
		assert.Equal(t, "B", pub.messages[0].Key)
		assert.Equal(t, EventUnconfirmable, pub.messages[0].GetEventType())
	})

	t.Run("publish errors are wrapped", func(t *testing.T) {
		cause := errors.New("broker unavailable")
		n := NewKafkaNotifier(&recordingPublisher{err: cause}, "reservations")
		err := n.Rescheduled(ctx, r, conflict.Result{})
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), EventRescheduled)
	})
}
