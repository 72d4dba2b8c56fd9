package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/KudzoNelsam/easycollis/internal/models"
)

type adminUserLister interface {
	List(ctx context.Context, limit, offset int) ([]models.User, int, error)
}

type adminPaymentLister interface {
	ListAll(ctx context.Context, limit, offset int) ([]models.PassPayment, int, error)
}

// AdminHandler exposes the back-office listings. Routes using it are mounted
// behind the admin role guard.
type AdminHandler struct {
	users    adminUserLister
	payments adminPaymentLister
}

func NewAdminHandler(users adminUserLister, payments adminPaymentLister) *AdminHandler {
	return &AdminHandler{
		users:    users,
		payments: payments,
	}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	users, total, err := h.users.List(c.Context(), limit, (page-1)*limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch users"})
	}

	return c.JSON(fiber.Map{
		"users":      users,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *AdminHandler) ListPayments(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	payments, total, err := h.payments.ListAll(c.Context(), limit, (page-1)*limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch payments"})
	}

	return c.JSON(fiber.Map{
		"payments":   payments,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}
