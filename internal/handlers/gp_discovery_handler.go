package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/KudzoNelsam/easycollis/internal/models"
)

type gpDiscoveryService interface {
	SearchTrips(ctx context.Context, query, destination string, page, limit int) ([]models.TripWithGP, int, error)
	GPDetail(ctx context.Context, gpID int64) (*models.User, []models.Trip, error)
	PopularDestinations(ctx context.Context) ([]models.DestinationCount, error)
}

// GPDiscoveryHandler serves the public, unauthenticated browsing surface:
// active trips with their GP, per-GP detail pages and the popular
// destinations ranking.
type GPDiscoveryHandler struct {
	service gpDiscoveryService
}

func NewGPDiscoveryHandler(service gpDiscoveryService) *GPDiscoveryHandler {
	return &GPDiscoveryHandler{service: service}
}

func (h *GPDiscoveryHandler) ListTrips(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	trips, total, err := h.service.SearchTrips(c.Context(), c.Query("q"), c.Query("destination"), page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch trips"})
	}

	return c.JSON(fiber.Map{
		"trips":      trips,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *GPDiscoveryHandler) GetGPDetail(c *fiber.Ctx) error {
	gpID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || gpID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid GP id"})
	}

	gp, trips, err := h.service.GPDetail(c.Context(), gpID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{
		"gp": fiber.Map{
			"id":        gp.ID,
			"full_name": gp.FullName,
			"city":      gp.City,
		},
		"trips": trips,
	})
}

func (h *GPDiscoveryHandler) GetPopularDestinations(c *fiber.Ctx) error {
	destinations, err := h.service.PopularDestinations(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch destinations"})
	}

	return c.JSON(fiber.Map{"destinations": destinations})
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
