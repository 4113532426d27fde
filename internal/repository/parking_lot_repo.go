package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"parkfinder/internal/db"
	"parkfinder/internal/entities"
)

type ParkingLotRepository struct {
	coll *mongo.Collection
}

func NewParkingLotRepository(database *mongo.Database) *ParkingLotRepository {
	return &ParkingLotRepository{coll: database.Collection(db.ParkingLotsCollection)}
}

// ListWithOccupancy returns lots matching filter (nil for all), each with
// OccupiedSpaces set to the number of its reservations still active at
// now. The join runs server-side so list views need a single round trip.
func (r *ParkingLotRepository) ListWithOccupancy(ctx context.Context, filter bson.M, now time.Time) ([]db.ParkingLot, error) {
	pipeline := mongo.Pipeline{}
	if filter != nil {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: filter}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: db.ReservationsCollection},
			{Key: "let", Value: bson.D{{Key: "lotId", Value: "$_id"}}},
			{Key: "pipeline", Value: mongo.Pipeline{
				bson.D{{Key: "$match", Value: bson.D{
					{Key: "$expr", Value: bson.D{{Key: "$and", Value: bson.A{
						bson.D{{Key: "$eq", Value: bson.A{"$parkingLotId", "$$lotId"}}},
						bson.D{{Key: "$gt", Value: bson.A{"$expiresAt", now}}},
					}}}},
				}}},
			}},
			{Key: "as", Value: "activeReservations"},
		}}},
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "occupiedSpaces", Value: bson.D{{Key: "$size", Value: "$activeReservations"}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{{Key: "activeReservations", Value: 0}}}},
	)

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregating parking lots: %w", err)
	}
	defer cursor.Close(ctx)

	var lots []db.ParkingLot
	if err := cursor.All(ctx, &lots); err != nil {
		return nil, fmt.Errorf("decoding parking lots: %w", err)
	}
	return lots, nil
}

// GetByID returns (nil, nil) when no lot has the given id.
func (r *ParkingLotRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*db.ParkingLot, error) {
	var lot db.ParkingLot
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&lot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying parking lot %s: %w", id.Hex(), err)
	}
	return &lot, nil
}

func (r *ParkingLotRepository) Insert(ctx context.Context, lot *db.ParkingLot) (primitive.ObjectID, error) {
	res, err := r.coll.InsertOne(ctx, lot)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("inserting parking lot: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id, nil
}

// Update applies the non-nil fields of req as a partial $set using dotted
// paths, so omitted siblings of nested fields are left untouched. The
// bool reports whether a lot with the id existed.
func (r *ParkingLotRepository) Update(ctx context.Context, id primitive.ObjectID, req *entities.UpdateParkingLotRequest) (bool, error) {
	set := updateSet(req)
	if len(set) == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return false, fmt.Errorf("checking parking lot %s: %w", id.Hex(), err)
		}
		return n > 0, nil
	}

	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("updating parking lot %s: %w", id.Hex(), err)
	}
	return res.MatchedCount > 0, nil
}

func (r *ParkingLotRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("deleting parking lot %s: %w", id.Hex(), err)
	}
	return res.DeletedCount > 0, nil
}

func updateSet(req *entities.UpdateParkingLotRequest) bson.M {
	set := bson.M{}
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Capacity != nil {
		set["capacity"] = *req.Capacity
	}
	if req.Fee != nil {
		set["fee"] = *req.Fee
	}
	if loc := req.Location; loc != nil {
		if loc.Street != nil {
			set["location.street"] = *loc.Street
		}
		if loc.City != nil {
			set["location.city"] = *loc.City
		}
		if loc.Country != nil {
			set["location.country"] = *loc.Country
		}
		if loc.Shape != nil && loc.Shape.Coordinates != nil {
			set["location.shape.type"] = "Point"
			set["location.shape.coordinates"] = loc.Shape.Coordinates
		}
	}
	return set
}
