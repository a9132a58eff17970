package handlers

import (
	"custora/internal/services/deposit"
	"custora/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type DepositHandler struct {
	depositService deposit.Service
}

func NewDepositHandler(depositService deposit.Service) *DepositHandler {
	return &DepositHandler{
		depositService: depositService,
	}
}

// GetAddress returns the custodial deposit address users send funds to.
func (h *DepositHandler) GetAddress(c *fiber.Ctx) error {
	if _, err := extractUserClaims(c); err != nil {
		return response.Unauthorized(c)
	}
	return response.Success(c, fiber.Map{
		"address": h.depositService.DepositAddress(),
	})
}

func (h *DepositHandler) SubmitClaim(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var input struct {
		TxID      string  `json:"tx_id"`
		AmountUSD float64 `json:"amount_usd"`
		Asset     string  `json:"asset"`
		Network   string  `json:"network"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request format")
	}

	claim, err := h.depositService.SubmitClaim(c.Context(), claims.UserID, input.TxID, input.AmountUSD, input.Asset, input.Network)
	if err != nil {
		return response.Domain(c, err)
	}

	return response.Created(c, fiber.Map{
		"deposit": claim,
	})
}

func (h *DepositHandler) GetClaim(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	txID := c.Params("txId")
	claim, err := h.depositService.GetClaim(c.Context(), claims.UserID, txID)
	if err != nil {
		return response.Domain(c, err)
	}

	return response.Success(c, fiber.Map{
		"deposit": claim,
	})
}

func (h *DepositHandler) ListClaims(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	deposits, err := h.depositService.ListClaims(c.Context(), claims.UserID, limit, offset)
	if err != nil {
		return response.Domain(c, err)
	}

	return response.Success(c, fiber.Map{
		"deposits": deposits,
	})
}

// Verify triggers an on-demand reconciliation of the caller's claim instead
// of waiting for the next poll tick.
func (h *DepositHandler) Verify(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	txID := c.Params("txId")
	// Ownership check first; VerifyAndConfirm itself is claim-agnostic.
	if _, err := h.depositService.GetClaim(c.Context(), claims.UserID, txID); err != nil {
		return response.Domain(c, err)
	}

	result, err := h.depositService.VerifyAndConfirm(c.Context(), txID)
	if err != nil {
		return response.Domain(c, err)
	}

	return response.Success(c, result)
}
