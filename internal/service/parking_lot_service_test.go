package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parkfinder/internal/db"
	"parkfinder/internal/entities"
	apperrors "parkfinder/internal/errors"
	"parkfinder/internal/query"
)

func boundsFor(t *testing.T) query.Bounds {
	t.Helper()
	b, ok := query.ParseBounds("ne=30,50&sw=20,40")
	require.True(t, ok)
	return b
}

type fakeLotStore struct {
	mu         sync.Mutex
	lots       map[primitive.ObjectID]db.ParkingLot
	lastFilter bson.M
	err        error
}

func newFakeLotStore() *fakeLotStore {
	return &fakeLotStore{lots: make(map[primitive.ObjectID]db.ParkingLot)}
}

func (f *fakeLotStore) ListWithOccupancy(_ context.Context, filter bson.M, _ time.Time) ([]db.ParkingLot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.lastFilter = filter
	var lots []db.ParkingLot
	for _, lot := range f.lots {
		lots = append(lots, lot)
	}
	return lots, nil
}

func (f *fakeLotStore) GetByID(_ context.Context, id primitive.ObjectID) (*db.ParkingLot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	lot, ok := f.lots[id]
	if !ok {
		return nil, nil
	}
	return &lot, nil
}

func (f *fakeLotStore) Insert(_ context.Context, lot *db.ParkingLot) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return primitive.NilObjectID, f.err
	}
	id := primitive.NewObjectID()
	lot.ID = id
	f.lots[id] = *lot
	return id, nil
}

func (f *fakeLotStore) Update(_ context.Context, id primitive.ObjectID, req *entities.UpdateParkingLotRequest) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	lot, ok := f.lots[id]
	if !ok {
		return false, nil
	}
	if req.Name != nil {
		lot.Name = *req.Name
	}
	if req.Capacity != nil {
		lot.Capacity = *req.Capacity
	}
	if req.Fee != nil {
		lot.Fee = *req.Fee
	}
	f.lots[id] = lot
	return true, nil
}

func (f *fakeLotStore) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.lots[id]; !ok {
		return false, nil
	}
	delete(f.lots, id)
	return true, nil
}

type fakeReservationStore struct {
	mu           sync.Mutex
	reservations []db.Reservation
	err          error
}

func (f *fakeReservationStore) CountActive(_ context.Context, lotID primitive.ObjectID, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for _, res := range f.reservations {
		if res.ParkingLotID == lotID && res.ExpiresAt.After(now) {
			n++
		}
	}
	return n, nil
}

func (f *fakeReservationStore) Insert(_ context.Context, res *db.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	res.ID = primitive.NewObjectID()
	f.reservations = append(f.reservations, *res)
	return nil
}

func (f *fakeReservationStore) DeleteByLot(_ context.Context, lotID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var kept []db.Reservation
	var deleted int64
	for _, res := range f.reservations {
		if res.ParkingLotID == lotID {
			deleted++
			continue
		}
		kept = append(kept, res)
	}
	f.reservations = kept
	return deleted, nil
}

func (f *fakeReservationStore) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var kept []db.Reservation
	var deleted int64
	for _, res := range f.reservations {
		if res.ExpiresAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, res)
	}
	f.reservations = kept
	return deleted, nil
}

func newTestService() (*ParkingLotService, *fakeLotStore, *fakeReservationStore) {
	lots := newFakeLotStore()
	reservations := &fakeReservationStore{}
	return NewParkingLotService(lots, reservations), lots, reservations
}

func addLot(t *testing.T, svc *ParkingLotService, capacity int, fee int64) primitive.ObjectID {
	t.Helper()
	id, err := svc.Create(context.Background(), &entities.CreateParkingLotRequest{
		Name:     "Central",
		Capacity: capacity,
		Fee:      &fee,
		Location: entities.LocationPayload{
			Street:  "Main St 1",
			City:    "Bucharest",
			Country: "Romania",
			Shape:   entities.ShapePayload{Coordinates: []float64{26.1, 44.4}},
		},
	})
	require.NoError(t, err)
	return id
}

func TestCreateStoresFeeInMinorUnits(t *testing.T) {
	svc, lots, _ := newTestService()

	// 2.50 RON arrives as 250; it must round-trip exactly.
	id := addLot(t, svc, 10, 250)

	lot, err := lots.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(250), lot.Fee)
	assert.Equal(t, 2.5, float64(lot.Fee)/100)
	assert.Equal(t, "Point", lot.Location.Shape.Type)
	assert.Equal(t, []float64{26.1, 44.4}, lot.Location.Shape.Coordinates)
}

func TestReserveUntilFull(t *testing.T) {
	svc, _, reservations := newTestService()
	id := addLot(t, svc, 3, 100)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Reserve(ctx, id))
	}

	err := svc.Reserve(ctx, id)
	var full *apperrors.CapacityExceededError
	require.True(t, errors.As(err, &full))
	assert.Contains(t, err.Error(), id.Hex())
	assert.Len(t, reservations.reservations, 3)
}

func TestReserveConcurrentNeverOverbooks(t *testing.T) {
	svc, _, reservations := newTestService()
	const capacity = 3
	const attempts = 20
	id := addLot(t, svc, capacity, 100)

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.Reserve(context.Background(), id)
		}()
	}
	wg.Wait()
	close(errs)

	var ok, rejected int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		var full *apperrors.CapacityExceededError
		require.True(t, errors.As(err, &full), "unexpected error: %v", err)
		rejected++
	}

	assert.Equal(t, capacity, ok)
	assert.Equal(t, attempts-capacity, rejected)
	assert.Len(t, reservations.reservations, capacity)
}

func TestReserveSetsExpiry(t *testing.T) {
	svc, _, reservations := newTestService()
	id := addLot(t, svc, 1, 100)

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.Reserve(context.Background(), id))

	require.Len(t, reservations.reservations, 1)
	res := reservations.reservations[0]
	assert.Equal(t, id, res.ParkingLotID)
	assert.Equal(t, now, res.CreatedAt)
	assert.Equal(t, now.Add(24*time.Hour), res.ExpiresAt)
}

func TestExpiredReservationDoesNotBlock(t *testing.T) {
	svc, _, reservations := newTestService()
	id := addLot(t, svc, 1, 100)

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	// An expired row still exists but frees its space.
	reservations.reservations = append(reservations.reservations, db.Reservation{
		ID:           primitive.NewObjectID(),
		ParkingLotID: id,
		CreatedAt:    now.Add(-48 * time.Hour),
		ExpiresAt:    now.Add(-24 * time.Hour),
	})

	require.NoError(t, svc.Reserve(context.Background(), id))
	assert.Len(t, reservations.reservations, 2)

	// The single active reservation now fills the lot.
	err := svc.Reserve(context.Background(), id)
	var full *apperrors.CapacityExceededError
	assert.True(t, errors.As(err, &full))
}

func TestReserveUnknownLot(t *testing.T) {
	svc, _, reservations := newTestService()

	id := primitive.NewObjectID()
	err := svc.Reserve(context.Background(), id)

	var notFound *apperrors.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Contains(t, err.Error(), id.Hex())
	assert.Empty(t, reservations.reservations)
}

func TestUpdateUnknownLot(t *testing.T) {
	svc, _, _ := newTestService()

	id := primitive.NewObjectID()
	name := "Renamed"
	err := svc.Update(context.Background(), id, &entities.UpdateParkingLotRequest{Name: &name})

	var notFound *apperrors.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Contains(t, err.Error(), id.Hex())
}

func TestUpdateOnlyFeeLeavesRestUnchanged(t *testing.T) {
	svc, lots, _ := newTestService()
	id := addLot(t, svc, 10, 250)

	fee := int64(990)
	require.NoError(t, svc.Update(context.Background(), id, &entities.UpdateParkingLotRequest{Fee: &fee}))

	lot, err := lots.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(990), lot.Fee)
	assert.Equal(t, "Central", lot.Name)
	assert.Equal(t, 10, lot.Capacity)
	assert.Equal(t, "Bucharest", lot.Location.City)
}

func TestDeleteCascadesReservations(t *testing.T) {
	svc, lots, reservations := newTestService()
	id := addLot(t, svc, 5, 100)
	other := addLot(t, svc, 5, 100)
	ctx := context.Background()

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	// Two active and one expired for the lot under test, one active for
	// the other lot.
	require.NoError(t, svc.Reserve(ctx, id))
	require.NoError(t, svc.Reserve(ctx, id))
	reservations.reservations = append(reservations.reservations, db.Reservation{
		ID:           primitive.NewObjectID(),
		ParkingLotID: id,
		CreatedAt:    now.Add(-48 * time.Hour),
		ExpiresAt:    now.Add(-24 * time.Hour),
	})
	require.NoError(t, svc.Reserve(ctx, other))

	require.NoError(t, svc.Delete(ctx, id))

	lot, err := lots.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, lot)

	require.Len(t, reservations.reservations, 1)
	assert.Equal(t, other, reservations.reservations[0].ParkingLotID)
}

func TestDeleteUnknownLot(t *testing.T) {
	svc, lots, reservations := newTestService()
	id := addLot(t, svc, 5, 100)
	require.NoError(t, svc.Reserve(context.Background(), id))

	unknown := primitive.NewObjectID()
	err := svc.Delete(context.Background(), unknown)

	var notFound *apperrors.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Contains(t, err.Error(), unknown.Hex())

	// Nothing was removed.
	lot, getErr := lots.GetByID(context.Background(), id)
	require.NoError(t, getErr)
	assert.NotNil(t, lot)
	assert.Len(t, reservations.reservations, 1)
}

func TestListEmptyIsNotNil(t *testing.T) {
	svc, _, _ := newTestService()

	lots, err := svc.List(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, lots)
	assert.Empty(t, lots)
}

func TestListPassesGeoFilter(t *testing.T) {
	svc, lots, _ := newTestService()
	addLot(t, svc, 5, 100)

	_, err := svc.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, lots.lastFilter)

	b := boundsFor(t)
	_, err = svc.List(context.Background(), &b)
	require.NoError(t, err)
	require.NotNil(t, lots.lastFilter)
	assert.Contains(t, lots.lastFilter, "location.shape.coordinates")
}

func TestSweeperDeletesOnlyLongExpired(t *testing.T) {
	reservations := &fakeReservationStore{}
	sweeper := NewSweeper(reservations, 30*24*time.Hour)

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	sweeper.now = func() time.Time { return now }

	lotID := primitive.NewObjectID()
	reservations.reservations = []db.Reservation{
		{ParkingLotID: lotID, ExpiresAt: now.Add(12 * time.Hour)},       // active
		{ParkingLotID: lotID, ExpiresAt: now.Add(-24 * time.Hour)},      // expired, within retention
		{ParkingLotID: lotID, ExpiresAt: now.Add(-40 * 24 * time.Hour)}, // past retention
		{ParkingLotID: lotID, ExpiresAt: now.Add(-31 * 24 * time.Hour)}, // past retention
	}

	sweeper.Run(context.Background())

	assert.Len(t, reservations.reservations, 2)
}
