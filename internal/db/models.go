package db

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shape is a GeoJSON point. Coordinates are [longitude, latitude] in
// storage, filters and API payloads alike.
type Shape struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

type Location struct {
	Street  string `bson:"street" json:"street"`
	City    string `bson:"city" json:"city"`
	Country string `bson:"country" json:"country"`
	Shape   Shape  `bson:"shape" json:"shape"`
}

// ParkingLot is the aggregate root. Fee is stored in minor currency units
// (fee x 100); the client converts for display. OccupiedSpaces is derived
// from active reservations at query time and never persisted.
type ParkingLot struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Capacity       int                `bson:"capacity" json:"capacity"`
	Fee            int64              `bson:"fee" json:"fee"`
	Location       Location           `bson:"location" json:"location"`
	OccupiedSpaces int                `bson:"occupiedSpaces,omitempty" json:"occupiedSpaces"`
}

// Reservation counts toward a lot's occupancy while ExpiresAt is in the
// future. Expired rows persist until the sweep job removes them.
type Reservation struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ParkingLotID primitive.ObjectID `bson:"parkingLotId" json:"parkingLotId"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	ExpiresAt    time.Time          `bson:"expiresAt" json:"expiresAt"`
}
