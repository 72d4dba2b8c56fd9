package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/KudzoNelsam/easycollis/internal/models"
	"github.com/KudzoNelsam/easycollis/internal/repository"
)

type tripStore interface {
	Create(ctx context.Context, input repository.CreateTripInput) (*models.Trip, error)
	GetByID(ctx context.Context, tripID int64) (*models.Trip, error)
	Update(ctx context.Context, tripID int64, input repository.UpdateTripInput) (*models.Trip, error)
	Delete(ctx context.Context, tripID int64) error
	ListByGP(ctx context.Context, gpID int64) ([]models.Trip, error)
	ListActive(ctx context.Context, filter repository.TripListFilter) ([]models.TripWithGP, int, error)
	ListActiveByGP(ctx context.Context, gpID int64) ([]models.Trip, error)
	PopularDestinations(ctx context.Context, limit int) ([]models.DestinationCount, error)
}

type tripFollowStore interface {
	Follow(ctx context.Context, userID, tripID int64) error
	Unfollow(ctx context.Context, userID, tripID int64) error
	ListFollowed(ctx context.Context, userID int64) ([]models.TripWithGP, error)
}

// DestinationsCache is an optional read-through cache for the popular
// destinations ranking. A nil cache disables caching.
type DestinationsCache interface {
	GetPopularDestinations(ctx context.Context) ([]models.DestinationCount, bool)
	SetPopularDestinations(ctx context.Context, destinations []models.DestinationCount)
}

type CreateTripInput struct {
	OriginCity    string
	Destination   string
	DepartureDate time.Time
	AvailableKg   float64
	PricePerKg    *float64
	Description   *string
}

type UpdateTripInput struct {
	OriginCity    string
	Destination   string
	DepartureDate time.Time
	AvailableKg   float64
	PricePerKg    *float64
	Description   *string
	Status        string
}

// TripService manages GP trip offerings. Trips belong to the GP who published
// them; nobody else may edit or delete them.
type TripService struct {
	trips   tripStore
	follows tripFollowStore
	users   userReader
	cache   DestinationsCache
}

func NewTripService(
	trips tripStore,
	follows tripFollowStore,
	users userReader,
	cache DestinationsCache,
) *TripService {
	return &TripService{
		trips:   trips,
		follows: follows,
		users:   users,
		cache:   cache,
	}
}

func (s *TripService) CreateTrip(ctx context.Context, actor Actor, input CreateTripInput) (*models.Trip, error) {
	if actor.Role != models.RoleGP {
		return nil, ErrRoleNotAllowed
	}
	if err := validateTripInput(input.OriginCity, input.Destination, input.DepartureDate, input.AvailableKg, input.PricePerKg); err != nil {
		return nil, err
	}

	return s.trips.Create(ctx, repository.CreateTripInput{
		GPID:          actor.ID,
		OriginCity:    strings.TrimSpace(input.OriginCity),
		Destination:   strings.TrimSpace(input.Destination),
		DepartureDate: input.DepartureDate.UTC(),
		AvailableKg:   input.AvailableKg,
		PricePerKg:    input.PricePerKg,
		Description:   trimOptional(input.Description),
	})
}

func (s *TripService) UpdateTrip(ctx context.Context, actor Actor, tripID int64, input UpdateTripInput) (*models.Trip, error) {
	trip, err := s.ownedTrip(ctx, actor, tripID)
	if err != nil {
		return nil, err
	}

	status, ok := models.ParseTripStatus(input.Status)
	if !ok {
		return nil, ErrInvalidInput
	}
	if err := validateTripInput(input.OriginCity, input.Destination, input.DepartureDate, input.AvailableKg, input.PricePerKg); err != nil {
		return nil, err
	}

	return s.trips.Update(ctx, trip.ID, repository.UpdateTripInput{
		OriginCity:    strings.TrimSpace(input.OriginCity),
		Destination:   strings.TrimSpace(input.Destination),
		DepartureDate: input.DepartureDate.UTC(),
		AvailableKg:   input.AvailableKg,
		PricePerKg:    input.PricePerKg,
		Description:   trimOptional(input.Description),
		Status:        status,
	})
}

func (s *TripService) DeleteTrip(ctx context.Context, actor Actor, tripID int64) error {
	trip, err := s.ownedTrip(ctx, actor, tripID)
	if err != nil {
		return err
	}
	return s.trips.Delete(ctx, trip.ID)
}

func (s *TripService) MyTrips(ctx context.Context, actor Actor) ([]models.Trip, error) {
	if actor.Role != models.RoleGP {
		return nil, ErrRoleNotAllowed
	}
	return s.trips.ListByGP(ctx, actor.ID)
}

func (s *TripService) SearchTrips(
	ctx context.Context,
	query string,
	destination string,
	page int,
	limit int,
) ([]models.TripWithGP, int, error) {
	if page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}
	return s.trips.ListActive(ctx, repository.TripListFilter{
		Query:       strings.TrimSpace(query),
		Destination: strings.TrimSpace(destination),
		Limit:       limit,
		Offset:      (page - 1) * limit,
	})
}

// GPDetail returns a GP's public identity together with their active trips.
func (s *TripService) GPDetail(ctx context.Context, gpID int64) (*models.User, []models.Trip, error) {
	if gpID <= 0 {
		return nil, nil, ErrInvalidInput
	}

	gp, err := s.users.GetByID(ctx, gpID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	if gp.Role != models.RoleGP {
		return nil, nil, ErrNotFound
	}

	trips, err := s.trips.ListActiveByGP(ctx, gpID)
	if err != nil {
		return nil, nil, err
	}
	return gp, trips, nil
}

const popularDestinationsLimit = 8

func (s *TripService) PopularDestinations(ctx context.Context) ([]models.DestinationCount, error) {
	if s.cache != nil {
		if destinations, ok := s.cache.GetPopularDestinations(ctx); ok {
			return destinations, nil
		}
	}

	destinations, err := s.trips.PopularDestinations(ctx, popularDestinationsLimit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetPopularDestinations(ctx, destinations)
	}
	return destinations, nil
}

func (s *TripService) FollowTrip(ctx context.Context, actor Actor, tripID int64) error {
	if actor.Role != models.RoleClient {
		return ErrRoleNotAllowed
	}

	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if trip.Status != models.TripStatusActive {
		return ErrInvalidInput
	}

	return s.follows.Follow(ctx, actor.ID, trip.ID)
}

func (s *TripService) UnfollowTrip(ctx context.Context, actor Actor, tripID int64) error {
	if actor.Role != models.RoleClient {
		return ErrRoleNotAllowed
	}
	if tripID <= 0 {
		return ErrInvalidInput
	}
	return s.follows.Unfollow(ctx, actor.ID, tripID)
}

func (s *TripService) FollowedTrips(ctx context.Context, actor Actor) ([]models.TripWithGP, error) {
	if actor.Role != models.RoleClient {
		return nil, ErrRoleNotAllowed
	}
	return s.follows.ListFollowed(ctx, actor.ID)
}

func (s *TripService) ownedTrip(ctx context.Context, actor Actor, tripID int64) (*models.Trip, error) {
	if actor.Role != models.RoleGP {
		return nil, ErrRoleNotAllowed
	}
	if tripID <= 0 {
		return nil, ErrInvalidInput
	}

	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if trip.GPID != actor.ID {
		return nil, ErrForbidden
	}
	return trip, nil
}

func validateTripInput(origin, destination string, departure time.Time, availableKg float64, pricePerKg *float64) error {
	if strings.TrimSpace(origin) == "" || strings.TrimSpace(destination) == "" {
		return ErrInvalidInput
	}
	if departure.IsZero() {
		return ErrInvalidInput
	}
	if availableKg <= 0 {
		return ErrInvalidInput
	}
	if pricePerKg != nil && *pricePerKg <= 0 {
		return ErrInvalidInput
	}
	return nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
