package services

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/KudzoNelsam/easycollis/internal/models"
	"github.com/KudzoNelsam/easycollis/internal/repository"
)

type stubTripStore struct {
	trips        map[int64]*models.Trip
	nextID       int64
	popularCalls int
	popular      []models.DestinationCount
}

func newStubTripStore() *stubTripStore {
	return &stubTripStore{trips: make(map[int64]*models.Trip), nextID: 1}
}

func (s *stubTripStore) Create(_ context.Context, input repository.CreateTripInput) (*models.Trip, error) {
	trip := &models.Trip{
		ID:            s.nextID,
		GPID:          input.GPID,
		OriginCity:    input.OriginCity,
		Destination:   input.Destination,
		DepartureDate: input.DepartureDate,
		AvailableKg:   input.AvailableKg,
		PricePerKg:    input.PricePerKg,
		Description:   input.Description,
		Status:        models.TripStatusActive,
	}
	s.nextID++
	s.trips[trip.ID] = trip
	return trip, nil
}

func (s *stubTripStore) GetByID(_ context.Context, tripID int64) (*models.Trip, error) {
	trip, ok := s.trips[tripID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return trip, nil
}

func (s *stubTripStore) Update(_ context.Context, tripID int64, input repository.UpdateTripInput) (*models.Trip, error) {
	trip, ok := s.trips[tripID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	trip.OriginCity = input.OriginCity
	trip.Destination = input.Destination
	trip.DepartureDate = input.DepartureDate
	trip.AvailableKg = input.AvailableKg
	trip.PricePerKg = input.PricePerKg
	trip.Description = input.Description
	trip.Status = input.Status
	return trip, nil
}

func (s *stubTripStore) Delete(_ context.Context, tripID int64) error {
	delete(s.trips, tripID)
	return nil
}

func (s *stubTripStore) ListByGP(_ context.Context, gpID int64) ([]models.Trip, error) {
	var trips []models.Trip
	for _, trip := range s.trips {
		if trip.GPID == gpID {
			trips = append(trips, *trip)
		}
	}
	return trips, nil
}

func (s *stubTripStore) ListActive(_ context.Context, _ repository.TripListFilter) ([]models.TripWithGP, int, error) {
	return nil, 0, nil
}

func (s *stubTripStore) ListActiveByGP(_ context.Context, gpID int64) ([]models.Trip, error) {
	return s.ListByGP(context.Background(), gpID)
}

func (s *stubTripStore) PopularDestinations(_ context.Context, _ int) ([]models.DestinationCount, error) {
	s.popularCalls++
	return s.popular, nil
}

type stubTripFollowStore struct {
	follows map[[2]int64]bool
}

func newStubTripFollowStore() *stubTripFollowStore {
	return &stubTripFollowStore{follows: make(map[[2]int64]bool)}
}

func (s *stubTripFollowStore) Follow(_ context.Context, userID, tripID int64) error {
	s.follows[[2]int64{userID, tripID}] = true
	return nil
}

func (s *stubTripFollowStore) Unfollow(_ context.Context, userID, tripID int64) error {
	delete(s.follows, [2]int64{userID, tripID})
	return nil
}

func (s *stubTripFollowStore) ListFollowed(_ context.Context, _ int64) ([]models.TripWithGP, error) {
	return nil, nil
}

type stubDestinationsCache struct {
	cached []models.DestinationCount
	hits   int
	sets   int
}

func (s *stubDestinationsCache) GetPopularDestinations(_ context.Context) ([]models.DestinationCount, bool) {
	if s.cached == nil {
		return nil, false
	}
	s.hits++
	return s.cached, true
}

func (s *stubDestinationsCache) SetPopularDestinations(_ context.Context, destinations []models.DestinationCount) {
	s.sets++
	s.cached = destinations
}

func validCreateTripInput() CreateTripInput {
	price := 5.5
	return CreateTripInput{
		OriginCity:    "Dakar",
		Destination:   "Paris",
		DepartureDate: time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC),
		AvailableKg:   20,
		PricePerKg:    &price,
	}
}

func TestCreateTripRequiresGPRole(t *testing.T) {
	service := NewTripService(newStubTripStore(), newStubTripFollowStore(), contactTestUsers(), nil)

	if _, err := service.CreateTrip(context.Background(), Actor{ID: 1, Role: models.RoleClient}, validCreateTripInput()); err != ErrRoleNotAllowed {
		t.Fatalf("expected ErrRoleNotAllowed, got %v", err)
	}

	trip, err := service.CreateTrip(context.Background(), Actor{ID: 2, Role: models.RoleGP}, validCreateTripInput())
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	if trip.GPID != 2 || trip.Status != models.TripStatusActive {
		t.Fatalf("unexpected trip: %+v", trip)
	}
}

func TestCreateTripValidation(t *testing.T) {
	service := NewTripService(newStubTripStore(), newStubTripFollowStore(), contactTestUsers(), nil)
	actor := Actor{ID: 2, Role: models.RoleGP}

	cases := map[string]func(*CreateTripInput){
		"empty origin":       func(in *CreateTripInput) { in.OriginCity = "  " },
		"empty destination":  func(in *CreateTripInput) { in.Destination = "" },
		"zero departure":     func(in *CreateTripInput) { in.DepartureDate = time.Time{} },
		"non-positive kg":    func(in *CreateTripInput) { in.AvailableKg = 0 },
		"non-positive price": func(in *CreateTripInput) { zero := 0.0; in.PricePerKg = &zero },
	}

	for name, mutate := range cases {
		input := validCreateTripInput()
		mutate(&input)
		if _, err := service.CreateTrip(context.Background(), actor, input); err != ErrInvalidInput {
			t.Errorf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestUpdateTripEnforcesOwnership(t *testing.T) {
	store := newStubTripStore()
	service := NewTripService(store, newStubTripFollowStore(), contactTestUsers(), nil)
	ctx := context.Background()

	trip, err := service.CreateTrip(ctx, Actor{ID: 2, Role: models.RoleGP}, validCreateTripInput())
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}

	update := UpdateTripInput{
		OriginCity:    "Dakar",
		Destination:   "Lyon",
		DepartureDate: trip.DepartureDate,
		AvailableKg:   15,
		Status:        string(models.TripStatusActive),
	}

	if _, err := service.UpdateTrip(ctx, Actor{ID: 9, Role: models.RoleGP}, trip.ID, update); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden for foreign gp, got %v", err)
	}

	updated, err := service.UpdateTrip(ctx, Actor{ID: 2, Role: models.RoleGP}, trip.ID, update)
	if err != nil {
		t.Fatalf("UpdateTrip: %v", err)
	}
	if updated.Destination != "Lyon" {
		t.Fatalf("expected updated destination, got %q", updated.Destination)
	}

	if err := service.DeleteTrip(ctx, Actor{ID: 9, Role: models.RoleGP}, trip.ID); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden on foreign delete, got %v", err)
	}
	if err := service.DeleteTrip(ctx, Actor{ID: 2, Role: models.RoleGP}, trip.ID); err != nil {
		t.Fatalf("DeleteTrip: %v", err)
	}
}

func TestFollowTripOnlyForClientsAndActiveTrips(t *testing.T) {
	store := newStubTripStore()
	follows := newStubTripFollowStore()
	service := NewTripService(store, follows, contactTestUsers(), nil)
	ctx := context.Background()

	trip, err := service.CreateTrip(ctx, Actor{ID: 2, Role: models.RoleGP}, validCreateTripInput())
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}

	if err := service.FollowTrip(ctx, Actor{ID: 2, Role: models.RoleGP}, trip.ID); err != ErrRoleNotAllowed {
		t.Fatalf("expected ErrRoleNotAllowed for gp, got %v", err)
	}
	if err := service.FollowTrip(ctx, Actor{ID: 1, Role: models.RoleClient}, 99); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for missing trip, got %v", err)
	}

	if err := service.FollowTrip(ctx, Actor{ID: 1, Role: models.RoleClient}, trip.ID); err != nil {
		t.Fatalf("FollowTrip: %v", err)
	}
	if !follows.follows[[2]int64{1, trip.ID}] {
		t.Fatalf("expected follow to be recorded")
	}

	store.trips[trip.ID].Status = models.TripStatusCancelled
	if err := service.FollowTrip(ctx, Actor{ID: 3, Role: models.RoleClient}, trip.ID); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for inactive trip, got %v", err)
	}
}

func TestPopularDestinationsUsesCache(t *testing.T) {
	store := newStubTripStore()
	store.popular = []models.DestinationCount{{Destination: "Paris", TripCount: 4}}
	cache := &stubDestinationsCache{}
	service := NewTripService(store, newStubTripFollowStore(), contactTestUsers(), cache)
	ctx := context.Background()

	first, err := service.PopularDestinations(ctx)
	if err != nil {
		t.Fatalf("PopularDestinations: %v", err)
	}
	if len(first) != 1 || store.popularCalls != 1 || cache.sets != 1 {
		t.Fatalf("expected a store hit and a cache fill, got calls=%d sets=%d", store.popularCalls, cache.sets)
	}

	second, err := service.PopularDestinations(ctx)
	if err != nil {
		t.Fatalf("PopularDestinations: %v", err)
	}
	if store.popularCalls != 1 || cache.hits != 1 {
		t.Fatalf("expected the second read to come from cache, calls=%d hits=%d", store.popularCalls, cache.hits)
	}
	if second[0].Destination != "Paris" {
		t.Fatalf("unexpected cached payload: %+v", second)
	}
}

func TestGPDetailRejectsNonGP(t *testing.T) {
	service := NewTripService(newStubTripStore(), newStubTripFollowStore(), contactTestUsers(), nil)
	ctx := context.Background()

	if _, _, err := service.GPDetail(ctx, 1); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for a client id, got %v", err)
	}
	if _, _, err := service.GPDetail(ctx, 99); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}

	gp, _, err := service.GPDetail(ctx, 2)
	if err != nil {
		t.Fatalf("GPDetail: %v", err)
	}
	if gp.ID != 2 {
		t.Fatalf("unexpected gp: %+v", gp)
	}
}
