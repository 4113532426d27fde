package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"parkfinder/internal/db"
)

type ReservationRepository struct {
	coll *mongo.Collection
}

func NewReservationRepository(database *mongo.Database) *ReservationRepository {
	return &ReservationRepository{coll: database.Collection(db.ReservationsCollection)}
}

// CountActive counts the lot's reservations whose expiry is after now.
// Expired rows persist but never count toward occupancy.
func (r *ReservationRepository) CountActive(ctx context.Context, lotID primitive.ObjectID, now time.Time) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{
		"parkingLotId": lotID,
		"expiresAt":    bson.M{"$gt": now},
	})
	if err != nil {
		return 0, fmt.Errorf("counting active reservations for lot %s: %w", lotID.Hex(), err)
	}
	return n, nil
}

func (r *ReservationRepository) Insert(ctx context.Context, res *db.Reservation) error {
	result, err := r.coll.InsertOne(ctx, res)
	if err != nil {
		return fmt.Errorf("inserting reservation for lot %s: %w", res.ParkingLotID.Hex(), err)
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		res.ID = id
	}
	return nil
}

// DeleteByLot removes every reservation of the lot, active or expired.
// Called when the parent lot is deleted so no orphan references remain.
func (r *ReservationRepository) DeleteByLot(ctx context.Context, lotID primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"parkingLotId": lotID})
	if err != nil {
		return 0, fmt.Errorf("deleting reservations for lot %s: %w", lotID.Hex(), err)
	}
	return res.DeletedCount, nil
}

// DeleteExpiredBefore removes reservations that expired before cutoff.
// Used by the sweep job; occupancy counts already exclude expired rows,
// so this only reclaims storage.
func (r *ReservationRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("deleting expired reservations: %w", err)
	}
	return res.DeletedCount, nil
}
