package handlers

import (
	"custora/internal/models"
	"custora/internal/services/withdrawal"
	"custora/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type WithdrawalHandler struct {
	withdrawalService withdrawal.Service
}

func NewWithdrawalHandler(withdrawalService withdrawal.Service) *WithdrawalHandler {
	return &WithdrawalHandler{
		withdrawalService: withdrawalService,
	}
}

func (h *WithdrawalHandler) Create(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var input struct {
		Amount             float64 `json:"amount"`
		WalletType         string  `json:"wallet_type"`
		DestinationAddress string  `json:"destination_address"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request format")
	}
	if input.WalletType == "" {
		input.WalletType = models.WalletTypeAccount
	}
	if input.DestinationAddress == "" {
		return response.BadRequest(c, "destination_address is required")
	}

	w, err := h.withdrawalService.Create(c.Context(), claims.UserID, input.Amount, input.WalletType, input.DestinationAddress)
	if err != nil {
		return response.Domain(c, err)
	}

	return response.Created(c, fiber.Map{
		"withdrawal": w,
	})
}

func (h *WithdrawalHandler) Get(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	w, err := h.withdrawalService.Get(c.Context(), claims.UserID, c.Params("id"))
	if err != nil {
		return response.Domain(c, err)
	}

	return response.Success(c, fiber.Map{
		"withdrawal": w,
	})
}

func (h *WithdrawalHandler) Cancel(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	w, err := h.withdrawalService.Cancel(c.Context(), claims.UserID, c.Params("id"))
	if err != nil {
		return response.Domain(c, err)
	}

	return response.Success(c, fiber.Map{
		"withdrawal": w,
	})
}
