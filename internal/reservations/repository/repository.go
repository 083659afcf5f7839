package repository

import (
	"context"
	"time"

	"fleetbook/pkg/config"
	"fleetbook/pkg/db"
	"fleetbook/pkg/db/sqlite"
	"fleetbook/pkg/model"
)

const (
	CollectionName     = "Reservations"
	LockCollectionName = "Reservation_locks"
)

type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	// FindByResource returns the reservations of resourceID whose span
	// intersects [from, to). A nil bound is open.
	FindByResource(ctx context.Context, resourceID string, from, to *time.Time) ([]*model.Reservation, error)
	Update(ctx context.Context, id string, reservation *model.Reservation) error
	UpdateStatus(ctx context.Context, id string, status string) error
	Delete(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn db.TransactionFunc) error
}

// LockRepository stores advisory locks. Create fails with ErrLockHeld while an
// unexpired lock with the same ID exists.
type LockRepository interface {
	Create(ctx context.Context, lock *model.ReservationLock) error
	Delete(ctx context.Context, lockID string) error
}

// New builds the repositories for the configured store driver. cfg.Connect
// must have been called. The embedded schema is applied on first use.
func New(cfg *config.Config) (ReservationRepository, LockRepository) {
	if cfg.StoreDriver == config.StoreSQLite {
		sqlite.MustMigrate(cfg.Client.SQL, SQLiteSchema)
		return NewSQLiteReservationRepository(cfg.Client.SQL), NewSQLiteLockRepository(cfg.Client.SQL)
	}
	return NewMongoReservationRepository(cfg), NewMongoLockRepository(cfg)
}

// Around returns FindByResource bounds covering r widened by buffer, which is
// every reservation that can conflict with r.
func Around(r *model.Reservation, buffer time.Duration) (from, to *time.Time) {
	start := r.PickupAt.Add(-buffer)
	end := r.ReturnAt.Add(buffer)
	return &start, &end
}

func Values(reservations []*model.Reservation) []model.Reservation {
	out := make([]model.Reservation, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, *r)
	}
	return out
}
