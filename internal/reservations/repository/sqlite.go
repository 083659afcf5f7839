package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	reservationserrors "fleetbook/internal/reservations/errors"
	"fleetbook/pkg/db"
	"fleetbook/pkg/db/sqlite"
	"fleetbook/pkg/model"

	"github.com/google/uuid"
)

// SQLiteSchema creates the embedded store. Instants are unix milliseconds.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS reservations (
	id TEXT PRIMARY KEY,
	resource_id TEXT NOT NULL,
	pickup_at INTEGER NOT NULL,
	return_at INTEGER NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('pending', 'confirmed', 'cancelled')),
	display_name TEXT NOT NULL DEFAULT '',
	contact_email TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
) STRICT;

CREATE INDEX IF NOT EXISTS reservations_resource_span_idx ON reservations (resource_id, pickup_at, return_at);
CREATE INDEX IF NOT EXISTS reservations_status_idx ON reservations (status);

CREATE TABLE IF NOT EXISTS reservation_locks (
	id TEXT PRIMARY KEY,
	expires_at INTEGER NOT NULL,
	created_at INTEGER NOT NULL
) STRICT;
`

const reservationColumns = "id, resource_id, pickup_at, return_at, status, display_name, contact_email, created_at"

type sqliteReservationRepository struct {
	conn      *sql.DB
	txManager db.TransactionManager
}

func NewSQLiteReservationRepository(conn *sql.DB) ReservationRepository {
	return &sqliteReservationRepository{
		conn:      conn,
		txManager: sqlite.NewTransactionManager(conn),
	}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReservation(row scanner) (*model.Reservation, error) {
	var (
		r                          model.Reservation
		pickup, ret, createdMillis int64
	)
	if err := row.Scan(&r.ID, &r.ResourceID, &pickup, &ret, &r.Status, &r.DisplayName, &r.ContactEmail, &createdMillis); err != nil {
		return nil, err
	}
	r.PickupAt = fromMillis(pickup)
	r.ReturnAt = fromMillis(ret)
	r.CreatedAt = fromMillis(createdMillis)
	return &r, nil
}

func (r *sqliteReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	if reservation.ID == "" {
		reservation.ID = uuid.NewString()
	}
	reservation.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	_, err := sqlite.From(ctx, r.conn).ExecContext(ctx,
		"INSERT INTO reservations ("+reservationColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		reservation.ID,
		reservation.ResourceID,
		toMillis(reservation.PickupAt),
		toMillis(reservation.ReturnAt),
		reservation.Status,
		reservation.DisplayName,
		reservation.ContactEmail,
		toMillis(reservation.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (r *sqliteReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	row := sqlite.From(ctx, r.conn).QueryRowContext(ctx, "SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id)
	reservation, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservationserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return reservation, nil
}

func (r *sqliteReservationRepository) FindByResource(ctx context.Context, resourceID string, from, to *time.Time) ([]*model.Reservation, error) {
	where := []string{"resource_id = ?"}
	args := []any{resourceID}
	if to != nil {
		where = append(where, "pickup_at < ?")
		args = append(args, toMillis(*to))
	}
	if from != nil {
		where = append(where, "return_at > ?")
		args = append(args, toMillis(*from))
	}

	rows, err := sqlite.From(ctx, r.conn).QueryContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE "+strings.Join(where, " AND ")+" ORDER BY pickup_at, id",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*model.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode reservations: %w", err)
		}
		reservations = append(reservations, reservation)
	}
	return reservations, rows.Err()
}

func (r *sqliteReservationRepository) Update(ctx context.Context, id string, reservation *model.Reservation) error {
	return r.exec(ctx, id,
		"UPDATE reservations SET pickup_at = ?, return_at = ?, status = ?, display_name = ?, contact_email = ? WHERE id = ?",
		toMillis(reservation.PickupAt),
		toMillis(reservation.ReturnAt),
		reservation.Status,
		reservation.DisplayName,
		reservation.ContactEmail,
		id,
	)
}

func (r *sqliteReservationRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	return r.exec(ctx, id, "UPDATE reservations SET status = ? WHERE id = ?", status, id)
}

func (r *sqliteReservationRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, id, "DELETE FROM reservations WHERE id = ?", id)
}

func (r *sqliteReservationRepository) exec(ctx context.Context, id string, query string, args ...any) error {
	if err := checkID(id); err != nil {
		return err
	}

	result, err := sqlite.From(ctx, r.conn).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to write reservation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to write reservation: %w", err)
	}
	if n == 0 {
		return reservationserrors.ErrNotFound
	}
	return nil
}

func (r *sqliteReservationRepository) ExecuteTransaction(ctx context.Context, fn db.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

type sqliteLockRepository struct {
	conn *sql.DB
}

func NewSQLiteLockRepository(conn *sql.DB) LockRepository {
	return &sqliteLockRepository{conn: conn}
}

// Create takes over an expired lock in place; a live one leaves the row
// untouched and reports ErrLockHeld.
func (r *sqliteLockRepository) Create(ctx context.Context, lock *model.ReservationLock) error {
	lock.CreatedAt = time.Now().UTC()
	now := toMillis(lock.CreatedAt)

	result, err := sqlite.From(ctx, r.conn).ExecContext(ctx, `
		INSERT INTO reservation_locks (id, expires_at, created_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET expires_at = excluded.expires_at, created_at = excluded.created_at
		WHERE reservation_locks.expires_at <= ?`,
		lock.ID, toMillis(lock.ExpiresAt), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create reservation lock: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to create reservation lock: %w", err)
	}
	if n == 0 {
		return reservationserrors.ErrLockHeld
	}
	return nil
}

func (r *sqliteLockRepository) Delete(ctx context.Context, lockID string) error {
	_, err := sqlite.From(ctx, r.conn).ExecContext(ctx, "DELETE FROM reservation_locks WHERE id = ?", lockID)
	return err
}
