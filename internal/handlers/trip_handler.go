package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/KudzoNelsam/easycollis/internal/models"
	"github.com/KudzoNelsam/easycollis/internal/services"
)

type tripPlanner interface {
	CreateTrip(ctx context.Context, actor services.Actor, input services.CreateTripInput) (*models.Trip, error)
	UpdateTrip(ctx context.Context, actor services.Actor, tripID int64, input services.UpdateTripInput) (*models.Trip, error)
	DeleteTrip(ctx context.Context, actor services.Actor, tripID int64) error
	MyTrips(ctx context.Context, actor services.Actor) ([]models.Trip, error)
	FollowTrip(ctx context.Context, actor services.Actor, tripID int64) error
	UnfollowTrip(ctx context.Context, actor services.Actor, tripID int64) error
	FollowedTrips(ctx context.Context, actor services.Actor) ([]models.TripWithGP, error)
}

type TripHandler struct {
	service tripPlanner
}

func NewTripHandler(service tripPlanner) *TripHandler {
	return &TripHandler{service: service}
}

type tripRequest struct {
	OriginCity    string   `json:"origin_city"`
	Destination   string   `json:"destination"`
	DepartureDate string   `json:"departure_date"`
	AvailableKg   float64  `json:"available_kg"`
	PricePerKg    *float64 `json:"price_per_kg"`
	Description   *string  `json:"description"`
	Status        string   `json:"status"`
}

func (h *TripHandler) CreateTrip(c *fiber.Ctx) error {
	actor, err := parseActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req tripRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	departure, err := parseTripDate(req.DepartureDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid departure date"})
	}

	trip, err := h.service.CreateTrip(c.Context(), actor, services.CreateTripInput{
		OriginCity:    req.OriginCity,
		Destination:   req.Destination,
		DepartureDate: departure,
		AvailableKg:   req.AvailableKg,
		PricePerKg:    req.PricePerKg,
		Description:   req.Description,
	})
	if err != nil {
		return mapChatError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"trip": trip})
}

func (h *TripHandler) UpdateTrip(c *fiber.Ctx) error {
	actor, err := parseActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	tripID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || tripID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trip id"})
	}

	var req tripRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	departure, err := parseTripDate(req.DepartureDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid departure date"})
	}

	trip, err := h.service.UpdateTrip(c.Context(), actor, tripID, services.UpdateTripInput{
		OriginCity:    req.OriginCity,
		Destination:   req.Destination,
		DepartureDate: departure,
		AvailableKg:   req.AvailableKg,
		PricePerKg:    req.PricePerKg,
		Description:   req.Description,
		Status:        req.Status,
	})
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"trip": trip})
}

func (h *TripHandler) DeleteTrip(c *fiber.Ctx) error {
	actor, err := parseActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	tripID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || tripID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trip id"})
	}

	if err := h.service.DeleteTrip(c.Context(), actor, tripID); err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"deleted": true})
}

func (h *TripHandler) MyTrips(c *fiber.Ctx) error {
	actor, err := parseActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	trips, err := h.service.MyTrips(c.Context(), actor)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"trips": trips})
}

func (h *TripHandler) FollowTrip(c *fiber.Ctx) error {
	actor, err := parseActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	tripID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || tripID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trip id"})
	}

	if err := h.service.FollowTrip(c.Context(), actor, tripID); err != nil {
		return mapChatError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"followed": true})
}

func (h *TripHandler) UnfollowTrip(c *fiber.Ctx) error {
	actor, err := parseActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	tripID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || tripID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trip id"})
	}

	if err := h.service.UnfollowTrip(c.Context(), actor, tripID); err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"followed": false})
}

func (h *TripHandler) FollowedTrips(c *fiber.Ctx) error {
	actor, err := parseActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	trips, err := h.service.FollowedTrips(c.Context(), actor)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"trips": trips})
}

// parseTripDate accepts either a full RFC 3339 timestamp or a plain date.
func parseTripDate(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", raw)
}
