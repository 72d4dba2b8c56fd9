package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/KudzoNelsam/easycollis/internal/models"
	"github.com/KudzoNelsam/easycollis/internal/services"
)

type passCheckoutService interface {
	Checkout(ctx context.Context, actor services.Actor, packID string) (*models.PassPayment, string, error)
	ConfirmIPN(ctx context.Context, ref string, event string) error
	Transactions(ctx context.Context, actor services.Actor) ([]models.PassPayment, error)
}

type PassHandler struct {
	payments passCheckoutService
	pass     *services.PassService
}

func NewPassHandler(payments passCheckoutService, pass *services.PassService) *PassHandler {
	return &PassHandler{
		payments: payments,
		pass:     pass,
	}
}

func (h *PassHandler) GetPacks(c *fiber.Ctx) error {
	role, _ := models.ParseRole(c.Query("role"))
	return c.JSON(fiber.Map{"packs": services.Packs(role)})
}

func (h *PassHandler) Checkout(c *fiber.Ctx) error {
	actor, err := parseActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req struct {
		PackID string `json:"pack_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	payment, redirectURL, err := h.payments.Checkout(c.Context(), actor, req.PackID)
	if err != nil {
		if errors.Is(err, services.ErrPaymentUnavailable) {
			return c.Status(fiber.StatusServiceUnavailable).
				JSON(fiber.Map{"error": "Payment gateway unavailable"})
		}
		return mapChatError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"payment":      payment,
		"redirect_url": redirectURL,
	})
}

// IPN is the public callback PayTech posts after a checkout. It must answer
// 200 even for unknown references or the gateway keeps retrying.
func (h *PassHandler) IPN(c *fiber.Ctx) error {
	var req struct {
		TypeEvent  string `json:"type_event" form:"type_event"`
		RefCommand string `json:"ref_command" form:"ref_command"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := h.payments.ConfirmIPN(c.Context(), req.RefCommand, req.TypeEvent); err != nil {
		if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrInvalidInput) {
			return c.JSON(fiber.Map{"handled": false})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process notification"})
	}

	return c.JSON(fiber.Map{"handled": true})
}

func (h *PassHandler) GetStatus(c *fiber.Ctx) error {
	actor, err := parseActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	credential, err := h.pass.Credential(c.Context(), actor.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch pass"})
	}

	return c.JSON(fiber.Map{"pass": buildCredentialResponse(credential)})
}

func (h *PassHandler) GetTransactions(c *fiber.Ctx) error {
	actor, err := parseActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	payments, err := h.payments.Transactions(c.Context(), actor)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"transactions": payments})
}

func buildCredentialResponse(credential models.Credential) fiber.Map {
	switch cred := credential.(type) {
	case models.BalanceCredential:
		return fiber.Map{
			"mode":    models.PassModeBalance,
			"credits": cred.Credits,
			"active":  cred.Credits > 0,
		}
	case models.WindowCredential:
		return fiber.Map{
			"mode":        models.PassModeWindow,
			"valid_until": cred.ValidUntil,
			"active":      services.IsPassActive(cred.ValidUntil, time.Now()),
		}
	default:
		return fiber.Map{"active": false}
	}
}
