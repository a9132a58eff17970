// Package handlers contains the HTTP handlers. They parse requests, pull the
// authenticated claims out of the context, and delegate to the services; no
// business rules live here.
package handlers

import (
	"custora/internal/models"
	"custora/internal/services/wallet"
	"custora/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	walletService wallet.Service
}

func NewWalletHandler(walletService wallet.Service) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// extractUserClaims is a helper to reduce duplication across handlers.
func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

func (h *WalletHandler) GetBalances(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	balances, err := h.walletService.GetBalances(c.Context(), claims.UserID)
	if err != nil {
		return response.Domain(c, err)
	}

	return response.Success(c, fiber.Map{
		"balances": balances,
	})
}

func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	walletType := c.Query("wallet", models.WalletTypeAccount)
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	txs, err := h.walletService.TransactionHistory(c.Context(), claims.UserID, walletType, limit, offset)
	if err != nil {
		return response.Domain(c, err)
	}

	return response.Success(c, fiber.Map{
		"wallet":       walletType,
		"transactions": txs,
	})
}
