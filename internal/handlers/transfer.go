package handlers

import (
	"custora/internal/services/transfer"
	"custora/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type TransferHandler struct {
	transferService transfer.Service
}

func NewTransferHandler(transferService transfer.Service) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
	}
}

func (h *TransferHandler) Transfer(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var input struct {
		From           string  `json:"from"`
		To             string  `json:"to"`
		Amount         float64 `json:"amount"`
		IdempotencyKey string  `json:"idempotency_key"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request format")
	}
	if input.IdempotencyKey == "" {
		return response.BadRequest(c, "idempotency_key is required")
	}

	result, err := h.transferService.Transfer(c.Context(), claims.UserID, input.From, input.To, input.Amount, input.IdempotencyKey)
	if err != nil {
		return response.Domain(c, err)
	}

	return response.Success(c, result)
}
