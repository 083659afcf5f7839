package events

import (
	"context"
	"errors"

	reservationserrors "fleetbook/internal/reservations/errors"
	"fleetbook/internal/reservations/repository"
	"fleetbook/pkg/config"
	"fleetbook/pkg/conflict"
	"fleetbook/pkg/kafka"
	"fleetbook/pkg/logger"
	"fleetbook/pkg/model"
)

// Worker reacts to confirmations by finding the pending siblings that the
// new confirmation made unconfirmable.
type Worker struct {
	repo     repository.ReservationRepository
	notifier Notifier
	analyzer *conflict.Analyzer
	policy   conflict.BufferPolicy
	log      *logger.Logger
}

func NewWorker(repo repository.ReservationRepository, notifier Notifier, cfg *config.Config) *Worker {
	return &Worker{
		repo:     repo,
		notifier: notifier,
		analyzer: conflict.NewAnalyzer(cfg.Location()),
		policy:   cfg.BufferPolicy(),
		log:      cfg.Log,
	}
}

// Handle is a kafka.MessageHandler. Store failures are transient, bad
// payloads are permanent.
func (w *Worker) Handle(ctx context.Context, msg kafka.Message) error {
	if msg.GetEventType() != EventConfirmed {
		return nil
	}

	var event ReservationEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("undecodable reservation event", err)
	}
	log := w.log.With("event_id", msg.GetEventID(), "reservation_id", event.ReservationID)
	ctx = logger.ContextWithRequestID(ctx, msg.GetCorrelationID())

	confirmed, err := w.repo.FindByID(ctx, event.ReservationID)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) || errors.Is(err, reservationserrors.ErrInvalidID) {
			log.Info("Confirmed reservation is gone, skipping")
			return nil
		}
		return kafka.NewTransientError("failed to load confirmed reservation", err)
	}
	if !confirmed.IsConfirmed() {
		log.Info("Reservation is no longer confirmed, skipping", "status", confirmed.Status)
		return nil
	}

	pending, err := w.pendingNeighbours(ctx, confirmed)
	if err != nil {
		return kafka.NewTransientError("failed to load sibling reservations", err)
	}

	notified := 0
	for _, candidate := range pending {
		siblings, err := w.loadAround(ctx, candidate)
		if err != nil {
			return kafka.NewTransientError("failed to load sibling reservations", err)
		}

		preflight, err := w.analyzer.CanPendingBeConfirmed(*candidate, siblings, w.policy)
		if err != nil {
			log.Warn("Skipping reservation with invalid interval", "sibling_id", candidate.ID, "error", err)
			continue
		}
		if preflight.CanConfirm {
			continue
		}

		if err := w.notifier.Unconfirmable(ctx, UnconfirmableEvent{
			ReservationID:          candidate.ID,
			ResourceID:             candidate.ResourceID,
			ConfirmedReservationID: confirmed.ID,
			Blocking:               *preflight.Blocking,
			Message:                w.analyzer.Formatter().FormatBlock(*preflight.Blocking),
			DisplayName:            candidate.DisplayName,
			ContactEmail:           candidate.ContactEmail,
		}); err != nil {
			return kafka.NewTransientError("failed to publish unconfirmable event", err)
		}
		notified++
	}

	log.Info("Confirmation processed", "pending_checked", len(pending), "unconfirmable", notified)
	return nil
}

func (w *Worker) pendingNeighbours(ctx context.Context, confirmed *model.Reservation) ([]*model.Reservation, error) {
	from, to := repository.Around(confirmed, w.policy.Duration())
	around, err := w.repo.FindByResource(ctx, confirmed.ResourceID, from, to)
	if err != nil {
		return nil, err
	}
	var pending []*model.Reservation
	for _, r := range around {
		if r.ID != confirmed.ID && r.Status == model.StatusPending {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

func (w *Worker) loadAround(ctx context.Context, r *model.Reservation) ([]model.Reservation, error) {
	from, to := repository.Around(r, w.policy.Duration())
	found, err := w.repo.FindByResource(ctx, r.ResourceID, from, to)
	if err != nil {
		return nil, err
	}
	return repository.Values(found), nil
}
