package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationserrors "fleetbook/internal/reservations/errors"
	"fleetbook/pkg/config"
	"fleetbook/pkg/db"
	mongotx "fleetbook/pkg/db/mongo"
	"fleetbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoReservationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  db.TransactionManager
}

func NewMongoReservationRepository(cfg *config.Config) ReservationRepository {
	database := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationRepository{
		cfg:        cfg,
		collection: database.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout bounds ctx unless it is a transaction's SessionContext, which
// cannot be wrapped without leaving the transaction.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}
	return oid, nil
}

func (r *mongoReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	reservation.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, reservation)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		reservation.ID = oid.Hex()
	}
	return nil
}

func (r *mongoReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var reservation model.Reservation
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservationserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}

	return &reservation, nil
}

func (r *mongoReservationRepository) FindByResource(ctx context.Context, resourceID string, from, to *time.Time) ([]*model.Reservation, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "pickup_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, buildResourceFilter(resourceID, from, to), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var reservations []*model.Reservation
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}

	return reservations, nil
}

func buildResourceFilter(resourceID string, from, to *time.Time) bson.M {
	filter := bson.M{"resource_id": resourceID}
	if to != nil {
		filter["pickup_at"] = bson.M{"$lt": *to}
	}
	if from != nil {
		filter["return_at"] = bson.M{"$gt": *from}
	}
	return filter
}

func (r *mongoReservationRepository) Update(ctx context.Context, id string, reservation *model.Reservation) error {
	return r.set(ctx, id, bson.M{
		"pickup_at":     reservation.PickupAt,
		"return_at":     reservation.ReturnAt,
		"status":        reservation.Status,
		"display_name":  reservation.DisplayName,
		"contact_email": reservation.ContactEmail,
	})
}

func (r *mongoReservationRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	return r.set(ctx, id, bson.M{"status": status})
}

func (r *mongoReservationRepository) set(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	if result.MatchedCount == 0 {
		return reservationserrors.ErrNotFound
	}
	return nil
}

func (r *mongoReservationRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	if result.DeletedCount == 0 {
		return reservationserrors.ErrNotFound
	}
	return nil
}

func (r *mongoReservationRepository) ExecuteTransaction(ctx context.Context, fn db.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

type mongoLockRepository struct {
	collection *mongo.Collection
}

func NewMongoLockRepository(cfg *config.Config) LockRepository {
	return &mongoLockRepository{
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(LockCollectionName),
	}
}

// Create inserts lock. The TTL monitor only sweeps about once a minute, so an
// expired lock that is still present is removed and the insert retried once.
func (r *mongoLockRepository) Create(ctx context.Context, lock *model.ReservationLock) error {
	lock.CreatedAt = time.Now().UTC()

	_, err := r.collection.InsertOne(ctx, lock)
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to create reservation lock: %w", err)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": lock.ID, "expires_at": bson.M{"$lte": lock.CreatedAt}})
	if err != nil {
		return fmt.Errorf("failed to clear expired reservation lock: %w", err)
	}
	if result.DeletedCount == 0 {
		return reservationserrors.ErrLockHeld
	}

	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return reservationserrors.ErrLockHeld
		}
		return fmt.Errorf("failed to create reservation lock: %w", err)
	}
	return nil
}

func (r *mongoLockRepository) Delete(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}
