package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationserrors "fleetbook/internal/reservations/errors"
	"fleetbook/internal/reservations/events"
	"fleetbook/internal/reservations/repository"
	"fleetbook/internal/reservations/validator"
	"fleetbook/pkg/config"
	"fleetbook/pkg/conflict"
	apperrors "fleetbook/pkg/errors"
	"fleetbook/pkg/model"
	"fleetbook/pkg/sanitizer"
)

type ReservationService interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	SearchByResource(ctx context.Context, resourceID string, from, to *time.Time) ([]*model.Reservation, error)
	Delete(ctx context.Context, id string) error
	Confirm(ctx context.Context, id string) (*Outcome, error)
	Preflight(ctx context.Context, id string) (*conflict.Preflight, error)
	AnalyzeEdit(ctx context.Context, id string, req *model.EditRequest) (*conflict.EditAnalysis, error)
	Reschedule(ctx context.Context, id string, updates *model.ReservationUpdate) (*Outcome, error)
}

// Outcome is a persisted reservation together with the advisory conflicts
// that did not prevent the write.
type Outcome struct {
	Reservation *model.Reservation `json:"reservation"`
	Result      conflict.Result    `json:"conflicts"`
}

type reservationService struct {
	repo      repository.ReservationRepository
	lockRepo  repository.LockRepository
	validator *validator.ReservationValidator
	notifier  events.Notifier
	analyzer  *conflict.Analyzer
	cfg       *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	lockRepo repository.LockRepository,
	validator *validator.ReservationValidator,
	notifier events.Notifier,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		lockRepo:  lockRepo,
		validator: validator,
		notifier:  notifier,
		analyzer:  conflict.NewAnalyzer(cfg.Location()),
		cfg:       cfg,
	}
}

func (s *reservationService) Create(ctx context.Context, reservation *model.Reservation) error {
	s.applyDefaults(reservation)
	s.sanitize(reservation)
	if err := s.validate(reservation); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, reservation); err != nil {
		s.cfg.Log.Error("Failed to create reservation", "error", err)
		return apperrors.Internal("Failed to create reservation", err)
	}

	s.cfg.Log.Info("Reservation created successfully",
		"id", reservation.ID,
		"resource_id", reservation.ResourceID,
		"pickup_at", reservation.PickupAt,
		"return_at", reservation.ReturnAt,
	)
	return nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, id, "Failed to retrieve reservation")
	}
	return reservation, nil
}

func (s *reservationService) SearchByResource(ctx context.Context, resourceID string, from, to *time.Time) ([]*model.Reservation, error) {
	resourceID = sanitizer.NormalizeResourceID(resourceID)
	if resourceID == "" {
		return nil, apperrors.InvalidInput("resource_id is required")
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, apperrors.InvalidInput("to must not be before from")
	}

	reservations, err := s.repo.FindByResource(ctx, resourceID, from, to)
	if err != nil {
		s.cfg.Log.Error("Failed to search reservations", "resource_id", resourceID, "error", err)
		return nil, apperrors.Internal("Failed to search reservations", err)
	}

	s.cfg.Log.Debug("Reservation search completed", "resource_id", resourceID, "count", len(reservations))
	return reservations, nil
}

func (s *reservationService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepositoryError(err, id, "Failed to delete reservation")
	}

	s.cfg.Log.Info("Reservation deleted successfully", "id", id)
	return nil
}

// Confirm marks a pending reservation confirmed. The conflict check and the
// status write run under the resource lock and inside one transaction, so two
// overlapping confirmations cannot both pass.
func (s *reservationService) Confirm(ctx context.Context, id string) (*Outcome, error) {
	candidate, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if candidate.IsCancelled() {
		return nil, apperrors.Conflict("A cancelled reservation cannot be confirmed")
	}

	release, err := s.acquireResourceLock(ctx, candidate.ResourceID)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		result  conflict.Result
		changed bool
	)
	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return mapRepositoryError(err, id, "Failed to reload reservation")
		}
		candidate = current
		if candidate.IsCancelled() {
			return apperrors.Conflict("A cancelled reservation cannot be confirmed")
		}

		siblings, err := s.siblingsAround(txCtx, candidate)
		if err != nil {
			return err
		}
		result, err = s.analyzer.AnalyzeConfirmation(*candidate, siblings, s.cfg.BufferPolicy())
		if err != nil {
			return analysisError(err)
		}
		if !result.CanProceed {
			return blockedError(result)
		}
		if candidate.IsConfirmed() {
			return nil
		}

		if err := s.repo.UpdateStatus(txCtx, id, model.StatusConfirmed); err != nil {
			return mapRepositoryError(err, id, "Failed to confirm reservation")
		}
		candidate.Status = model.StatusConfirmed
		changed = true
		return nil
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeBookingConflict) {
			s.cfg.Log.Info("Reservation confirmation blocked", "id", id, "message", result.Message)
			if notifyErr := s.notifier.ConfirmRejected(ctx, candidate, result); notifyErr != nil {
				s.cfg.Log.Warn("Failed to publish confirmation rejection", "id", id, "error", notifyErr)
			}
		} else {
			s.cfg.Log.Error("Failed to confirm reservation", "id", id, "error", err)
		}
		return nil, err
	}

	if !changed {
		s.cfg.Log.Debug("Reservation already confirmed", "id", id)
		return &Outcome{Reservation: candidate, Result: result}, nil
	}

	if err := s.notifier.Confirmed(ctx, candidate, result); err != nil {
		s.cfg.Log.Warn("Failed to publish confirmation", "id", id, "error", err)
	}

	s.cfg.Log.Info("Reservation confirmed successfully",
		"id", id,
		"resource_id", candidate.ResourceID,
		"warnings", len(result.Advisory()),
	)
	return &Outcome{Reservation: candidate, Result: result}, nil
}

func (s *reservationService) Preflight(ctx context.Context, id string) (*conflict.Preflight, error) {
	candidate, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	siblings, err := s.siblingsAround(ctx, candidate)
	if err != nil {
		return nil, err
	}
	preflight, err := s.analyzer.CanPendingBeConfirmed(*candidate, siblings, s.cfg.BufferPolicy())
	if err != nil {
		return nil, analysisError(err)
	}
	return &preflight, nil
}

func (s *reservationService) AnalyzeEdit(ctx context.Context, id string, req *model.EditRequest) (*conflict.EditAnalysis, error) {
	if err := s.validator.ValidateEdit(req); err != nil {
		s.cfg.Log.Warn("Edit analysis input invalid", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid edit input", map[string]any{"error": err.Error()})
	}

	candidate, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	input, err := s.editInput(candidate, req)
	if err != nil {
		return nil, err
	}

	cal := s.analyzer.Calendar()
	from, to := cal.StartOfDay(input.Day), cal.EndOfDay(input.Day)
	found, err := s.repo.FindByResource(ctx, candidate.ResourceID, &from, &to)
	if err != nil {
		return nil, apperrors.Internal("Failed to load sibling reservations", err)
	}

	analysis, err := s.analyzer.AnalyzeEdit(input, repository.Values(found), s.cfg.BufferPolicy())
	if err != nil {
		return nil, analysisError(err)
	}
	return &analysis, nil
}

// Reschedule moves a reservation. Only conflicts a confirmation would also
// block reject the move.
func (s *reservationService) Reschedule(ctx context.Context, id string, updates *model.ReservationUpdate) (*Outcome, error) {
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Reservation update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.IsCancelled() {
		return nil, apperrors.Conflict("A cancelled reservation cannot be rescheduled")
	}

	release, err := s.acquireResourceLock(ctx, existing.ResourceID)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		merged *model.Reservation
		result conflict.Result
	)
	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return mapRepositoryError(err, id, "Failed to reload reservation")
		}
		merged = mergeReservationUpdates(current, updates)
		s.sanitize(merged)
		if err := s.validate(merged); err != nil {
			return err
		}

		siblings, err := s.siblingsAround(txCtx, merged)
		if err != nil {
			return err
		}
		result, err = s.analyzer.AnalyzeSpan(*merged, siblings, s.cfg.BufferPolicy())
		if err != nil {
			return analysisError(err)
		}
		if !result.CanProceed {
			return blockedError(result)
		}

		if err := s.repo.Update(txCtx, id, merged); err != nil {
			return mapRepositoryError(err, id, "Failed to update reservation")
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("Failed to reschedule reservation", "id", id, "error", err)
		return nil, err
	}

	if err := s.notifier.Rescheduled(ctx, merged, result); err != nil {
		s.cfg.Log.Warn("Failed to publish reschedule", "id", id, "error", err)
	}

	s.cfg.Log.Info("Reservation rescheduled successfully", "id", id, "pickup_at", merged.PickupAt, "return_at", merged.ReturnAt)
	return &Outcome{Reservation: merged, Result: result}, nil
}

// --- Helpers ---

func (s *reservationService) applyDefaults(r *model.Reservation) {
	if r.Status == "" {
		r.Status = model.StatusPending
	}
}

func (s *reservationService) sanitize(r *model.Reservation) {
	r.ResourceID = sanitizer.NormalizeResourceID(r.ResourceID)
	r.DisplayName = sanitizer.NormalizeName(r.DisplayName)
	r.ContactEmail = sanitizer.NormalizeEmail(r.ContactEmail)
}

func (s *reservationService) validate(r *model.Reservation) error {
	if err := s.validator.Validate(r); err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "error", err)
		return apperrors.Validation("Reservation validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *reservationService) siblingsAround(ctx context.Context, r *model.Reservation) ([]model.Reservation, error) {
	from, to := repository.Around(r, s.cfg.BufferPolicy().Duration())
	found, err := s.repo.FindByResource(ctx, r.ResourceID, from, to)
	if err != nil {
		return nil, apperrors.Internal("Failed to load sibling reservations", err)
	}
	return repository.Values(found), nil
}

func (s *reservationService) editInput(candidate *model.Reservation, req *model.EditRequest) (conflict.EditInput, error) {
	cal := s.analyzer.Calendar()
	invalid := func(err error) (conflict.EditInput, error) {
		return conflict.EditInput{}, apperrors.Validation("Invalid edit input", map[string]any{"error": err.Error()})
	}

	day, err := cal.ParseDay(req.Day)
	if err != nil {
		return invalid(err)
	}
	pickupClock, err := conflict.ParseClock(req.PickupTime)
	if err != nil {
		return invalid(err)
	}
	returnClock, err := conflict.ParseClock(req.ReturnTime)
	if err != nil {
		return invalid(err)
	}

	edited := *candidate
	if req.PickupDate != "" {
		if edited.PickupAt, err = cal.ParseDay(req.PickupDate); err != nil {
			return invalid(err)
		}
	}
	if req.ReturnDate != "" {
		if edited.ReturnAt, err = cal.ParseDay(req.ReturnDate); err != nil {
			return invalid(err)
		}
	}

	return conflict.EditInput{
		Candidate:   edited,
		Day:         day,
		PickupClock: pickupClock,
		ReturnClock: returnClock,
	}, nil
}

// acquireResourceLock serializes confirmations and reschedules per resource.
// The returned release never fails the caller; an unreleased lock expires
// after cfg.LockTTL.
func (s *reservationService) acquireResourceLock(ctx context.Context, resourceID string) (func(), error) {
	lockID := fmt.Sprintf("reservation_lock_%s", resourceID)

	err := s.lockRepo.Create(ctx, &model.ReservationLock{
		ID:        lockID,
		ExpiresAt: time.Now().UTC().Add(s.cfg.LockTTL),
	})
	if err != nil {
		if errors.Is(err, reservationserrors.ErrLockHeld) {
			return nil, apperrors.ResourceLocked(resourceID)
		}
		return nil, apperrors.Internal("Failed to acquire reservation lock", err)
	}

	return func() {
		if err := s.lockRepo.Delete(context.WithoutCancel(ctx), lockID); err != nil {
			s.cfg.Log.Warn("Failed to release reservation lock", "lock_id", lockID, "error", err)
		}
	}, nil
}

func mergeReservationUpdates(existing *model.Reservation, updates *model.ReservationUpdate) *model.Reservation {
	merged := *existing

	if updates.PickupAt != nil {
		merged.PickupAt = *updates.PickupAt
	}
	if updates.ReturnAt != nil {
		merged.ReturnAt = *updates.ReturnAt
	}
	if updates.DisplayName != "" {
		merged.DisplayName = updates.DisplayName
	}
	if updates.ContactEmail != "" {
		merged.ContactEmail = updates.ContactEmail
	}

	return &merged
}

func mapRepositoryError(err error, id, message string) error {
	switch {
	case errors.Is(err, reservationserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Reservation", id)
	case errors.Is(err, reservationserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid reservation ID format")
	case apperrors.IsAppError(err):
		return err
	default:
		return apperrors.Internal(message, err)
	}
}

// analysisError reports stored data the conflict core refuses to analyze.
func analysisError(err error) error {
	if errors.Is(err, conflict.ErrInvalidInterval) || errors.Is(err, conflict.ErrInvalidClock) {
		return apperrors.Validation("Reservation cannot be analyzed", map[string]any{"error": err.Error()})
	}
	return apperrors.Internal("Conflict analysis failed", err)
}

func blockedError(result conflict.Result) error {
	return apperrors.BookingConflict(result.Message, map[string]any{
		"severity": result.Severity,
		"facts":    result.Facts,
	})
}
