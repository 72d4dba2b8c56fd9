package repository

import (
	"context"

	"github.com/KudzoNelsam/easycollis/internal/models"
)

// TripFollowRepository tracks which trips a client keeps on their dashboard.
type TripFollowRepository struct {
	db DBTX
}

func NewTripFollowRepository(db DBTX) *TripFollowRepository {
	return &TripFollowRepository{db: db}
}

func (r *TripFollowRepository) Follow(ctx context.Context, userID, tripID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO trip_follows (user_id, trip_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, trip_id) DO NOTHING
	`, userID, tripID)
	return err
}

func (r *TripFollowRepository) Unfollow(ctx context.Context, userID, tripID int64) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM trip_follows
		WHERE user_id = $1 AND trip_id = $2
	`, userID, tripID)
	return err
}

func (r *TripFollowRepository) ListFollowed(ctx context.Context, userID int64) ([]models.TripWithGP, error) {
	query := `
		SELECT t.id, t.gp_id, t.origin_city, t.destination, t.departure_date, t.available_kg,
		       t.price_per_kg, t.description, t.status, t.created_at, t.updated_at,
		       u.full_name, u.city
		FROM trip_follows f
		INNER JOIN trips t ON t.id = f.trip_id
		INNER JOIN users u ON u.id = t.gp_id
		WHERE f.user_id = $1
		ORDER BY t.departure_date ASC, t.id ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
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
			return nil, err
		}
		trips = append(trips, trip)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return trips, nil
}
