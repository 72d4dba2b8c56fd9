package repository

import (
	"context"
	"time"

	"github.com/KudzoNelsam/easycollis/internal/models"
)

type CreateTripInput struct {
	GPID          int64
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
	Status        models.TripStatus
}

type TripListFilter struct {
	Query       string
	Destination string
	Limit       int
	Offset      int
}

type TripRepository struct {
	db DBTX
}

func NewTripRepository(db DBTX) *TripRepository {
	return &TripRepository{db: db}
}

func (r *TripRepository) Create(ctx context.Context, input CreateTripInput) (*models.Trip, error) {
	query := `
		INSERT INTO trips (gp_id, origin_city, destination, departure_date, available_kg, price_per_kg, description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'active')
		RETURNING id, gp_id, origin_city, destination, departure_date, available_kg, price_per_kg, description, status, created_at, updated_at
	`

	var trip models.Trip
	err := r.db.QueryRow(
		ctx,
		query,
		input.GPID,
		input.OriginCity,
		input.Destination,
		input.DepartureDate,
		input.AvailableKg,
		input.PricePerKg,
		input.Description,
	).Scan(
		&trip.ID,
		&trip.GPID,
		&trip.OriginCity,
		&trip.Destination,
		&trip.DepartureDate,
		&trip.AvailableKg,
		&trip.PricePerKg,
		&trip.Description,
		&trip.Status,
		&trip.CreatedAt,
		&trip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &trip, nil
}

func (r *TripRepository) GetByID(ctx context.Context, tripID int64) (*models.Trip, error) {
	query := `
		SELECT id, gp_id, origin_city, destination, departure_date, available_kg, price_per_kg, description, status, created_at, updated_at
		FROM trips
		WHERE id = $1
	`

	var trip models.Trip
	err := r.db.QueryRow(ctx, query, tripID).Scan(
		&trip.ID,
		&trip.GPID,
		&trip.OriginCity,
		&trip.Destination,
		&trip.DepartureDate,
		&trip.AvailableKg,
		&trip.PricePerKg,
		&trip.Description,
		&trip.Status,
		&trip.CreatedAt,
		&trip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &trip, nil
}

func (r *TripRepository) Update(ctx context.Context, tripID int64, input UpdateTripInput) (*models.Trip, error) {
	query := `
		UPDATE trips
		SET origin_city = $2,
		    destination = $3,
		    departure_date = $4,
		    available_kg = $5,
		    price_per_kg = $6,
		    description = $7,
		    status = $8,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, gp_id, origin_city, destination, departure_date, available_kg, price_per_kg, description, status, created_at, updated_at
	`

	var trip models.Trip
	err := r.db.QueryRow(
		ctx,
		query,
		tripID,
		input.OriginCity,
		input.Destination,
		input.DepartureDate,
		input.AvailableKg,
		input.PricePerKg,
		input.Description,
		input.Status,
	).Scan(
		&trip.ID,
		&trip.GPID,
		&trip.OriginCity,
		&trip.Destination,
		&trip.DepartureDate,
		&trip.AvailableKg,
		&trip.PricePerKg,
		&trip.Description,
		&trip.Status,
		&trip.CreatedAt,
		&trip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &trip, nil
}

func (r *TripRepository) Delete(ctx context.Context, tripID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM trips WHERE id = $1`, tripID)
	return err
}

func (r *TripRepository) ListByGP(ctx context.Context, gpID int64) ([]models.Trip, error) {
	query := `
		SELECT id, gp_id, origin_city, destination, departure_date, available_kg, price_per_kg, description, status, created_at, updated_at
		FROM trips
		WHERE gp_id = $1
		ORDER BY departure_date DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, gpID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := make([]models.Trip, 0)
	for rows.Next() {
		var trip models.Trip
		if err := rows.Scan(
			&trip.ID,
			&trip.GPID,
			&trip.OriginCity,
			&trip.Destination,
			&trip.DepartureDate,
			&trip.AvailableKg,
			&trip.PricePerKg,
			&trip.Description,
			&trip.Status,
			&trip.CreatedAt,
			&trip.UpdatedAt,
		); err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return trips, nil
}

// ListActive powers the public GP discovery view: active trips joined with the
// identity of the publishing GP, with a free-text search over GP name, origin
// and destination.
func (r *TripRepository) ListActive(ctx context.Context, filter TripListFilter) ([]models.TripWithGP, int, error) {
	pattern := "%" + filter.Query + "%"
	destinationPattern := "%" + filter.Destination + "%"

	totalQuery := `
		SELECT COUNT(*)
		FROM trips t
		INNER JOIN users u ON u.id = t.gp_id
		WHERE t.status = 'active'
		  AND ($1 = '%%' OR u.full_name ILIKE $1 OR t.origin_city ILIKE $1 OR t.destination ILIKE $1)
		  AND ($2 = '%%' OR t.destination ILIKE $2)
	`

	var total int
	if err := r.db.QueryRow(ctx, totalQuery, pattern, destinationPattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT t.id, t.gp_id, t.origin_city, t.destination, t.departure_date, t.available_kg,
		       t.price_per_kg, t.description, t.status, t.created_at, t.updated_at,
		       u.full_name, u.city
		FROM trips t
		INNER JOIN users u ON u.id = t.gp_id
		WHERE t.status = 'active'
		  AND ($1 = '%%' OR u.full_name ILIKE $1 OR t.origin_city ILIKE $1 OR t.destination ILIKE $1)
		  AND ($2 = '%%' OR t.destination ILIKE $2)
		ORDER BY t.departure_date ASC, t.id ASC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, pattern, destinationPattern, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	trips := make([]models.TripWithGP, 0)
	for rows.Next() {
		var trip models.TripWithGP
		if err := rows.Scan(
			&trip.ID,
			&trip.GPID,
			&trip.OriginCity,
			&trip.Destination,
			&trip.DepartureDate,
			&trip.AvailableKg,
			&trip.PricePerKg,
			&trip.Description,
			&trip.Status,
			&trip.CreatedAt,
			&trip.UpdatedAt,
			&trip.GPName,
			&trip.GPCity,
		); err != nil {
			return nil, 0, err
		}
		trips = append(trips, trip)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return trips, total, nil
}

func (r *TripRepository) ListActiveByGP(ctx context.Context, gpID int64) ([]models.Trip, error) {
	query := `
		SELECT id, gp_id, origin_city, destination, departure_date, available_kg, price_per_kg, description, status, created_at, updated_at
		FROM trips
		WHERE gp_id = $1 AND status = 'active'
		ORDER BY departure_date ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, gpID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := make([]models.Trip, 0)
	for rows.Next() {
		var trip models.Trip
		if err := rows.Scan(
			&trip.ID,
			&trip.GPID,
			&trip.OriginCity,
			&trip.Destination,
			&trip.DepartureDate,
			&trip.AvailableKg,
			&trip.PricePerKg,
			&trip.Description,
			&trip.Status,
			&trip.CreatedAt,
			&trip.UpdatedAt,
		); err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return trips, nil
}

func (r *TripRepository) PopularDestinations(ctx context.Context, limit int) ([]models.DestinationCount, error) {
	query := `
		SELECT destination, COUNT(*) AS trip_count
		FROM trips
		WHERE status = 'active'
		GROUP BY destination
		ORDER BY trip_count DESC, destination ASC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	destinations := make([]models.DestinationCount, 0)
	for rows.Next() {
		var destination models.DestinationCount
		if err := rows.Scan(&destination.Destination, &destination.TripCount); err != nil {
			return nil, err
		}
		destinations = append(destinations, destination)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return destinations, nil
}
