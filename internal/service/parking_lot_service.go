package service

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parkfinder/internal/db"
	"parkfinder/internal/entities"
	apperrors "parkfinder/internal/errors"
	"parkfinder/internal/query"
)

// reservationTTL is how long a reservation holds a space.
const reservationTTL = 24 * time.Hour

type LotStore interface {
	ListWithOccupancy(ctx context.Context, filter bson.M, now time.Time) ([]db.ParkingLot, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*db.ParkingLot, error)
	Insert(ctx context.Context, lot *db.ParkingLot) (primitive.ObjectID, error)
	Update(ctx context.Context, id primitive.ObjectID, req *entities.UpdateParkingLotRequest) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type ReservationStore interface {
	CountActive(ctx context.Context, lotID primitive.ObjectID, now time.Time) (int64, error)
	Insert(ctx context.Context, res *db.Reservation) error
	DeleteByLot(ctx context.Context, lotID primitive.ObjectID) (int64, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type ParkingLotService struct {
	lots         LotStore
	reservations ReservationStore
	locks        lotLocks
	now          func() time.Time
}

func NewParkingLotService(lots LotStore, reservations ReservationStore) *ParkingLotService {
	return &ParkingLotService{
		lots:         lots,
		reservations: reservations,
		now:          time.Now,
	}
}

// List returns all lots, or only those inside bounds when given, each
// with its live occupancy.
func (s *ParkingLotService) List(ctx context.Context, bounds *query.Bounds) ([]db.ParkingLot, error) {
	var filter bson.M
	if bounds != nil {
		filter = bounds.Filter()
	}

	lots, err := s.lots.ListWithOccupancy(ctx, filter, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if lots == nil {
		lots = []db.ParkingLot{}
	}
	return lots, nil
}

func (s *ParkingLotService) Create(ctx context.Context, req *entities.CreateParkingLotRequest) (primitive.ObjectID, error) {
	lot := &db.ParkingLot{
		Name:     req.Name,
		Capacity: req.Capacity,
		Fee:      *req.Fee,
		Location: db.Location{
			Street:  req.Location.Street,
			City:    req.Location.City,
			Country: req.Location.Country,
			Shape: db.Shape{
				Type:        "Point",
				Coordinates: req.Location.Shape.Coordinates,
			},
		},
	}
	return s.lots.Insert(ctx, lot)
}

func (s *ParkingLotService) Update(ctx context.Context, id primitive.ObjectID, req *entities.UpdateParkingLotRequest) error {
	matched, err := s.lots.Update(ctx, id, req)
	if err != nil {
		return err
	}
	if !matched {
		return apperrors.NewNotFound(id.Hex())
	}
	return nil
}

// Reserve inserts a reservation for the lot unless it is already at
// capacity. The capacity check and the insert form a critical section
// serialized per lot id, so concurrent attempts can never overbook.
func (s *ParkingLotService) Reserve(ctx context.Context, id primitive.ObjectID) error {
	unlock := s.locks.lock(id)
	defer unlock()

	lot, err := s.lots.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if lot == nil {
		return apperrors.NewNotFound(id.Hex())
	}

	now := s.now().UTC()
	active, err := s.reservations.CountActive(ctx, id, now)
	if err != nil {
		return err
	}
	if active >= int64(lot.Capacity) {
		return apperrors.NewCapacityExceeded(id.Hex())
	}

	return s.reservations.Insert(ctx, &db.Reservation{
		ParkingLotID: id,
		CreatedAt:    now,
		ExpiresAt:    now.Add(reservationTTL),
	})
}

// Delete removes the lot and all of its reservations. Reservations go
// first: if the cascade fails the lot stays visible and the delete can
// be retried, so a live lot never points at half-removed children.
func (s *ParkingLotService) Delete(ctx context.Context, id primitive.ObjectID) error {
	lot, err := s.lots.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if lot == nil {
		return apperrors.NewNotFound(id.Hex())
	}

	if _, err := s.reservations.DeleteByLot(ctx, id); err != nil {
		return err
	}

	deleted, err := s.lots.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NewNotFound(id.Hex())
	}
	return nil
}

// lotLocks hands out one mutex per lot id. Entries are never evicted;
// the map is bounded by the number of lots ever reserved against.
type lotLocks struct {
	mu    sync.Mutex
	locks map[primitive.ObjectID]*sync.Mutex
}

func (l *lotLocks) lock(id primitive.ObjectID) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[primitive.ObjectID]*sync.Mutex)
	}
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
