package handlers

import (
	"custora/internal/services/wallet"
	"custora/internal/services/withdrawal"
	"custora/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler exposes the operator surface: the pending withdrawal queue,
// the approval actions, and the ledger audit.
type AdminHandler struct {
	withdrawalService withdrawal.Service
	walletService     wallet.Service
}

func NewAdminHandler(withdrawalService withdrawal.Service, walletService wallet.Service) *AdminHandler {
	return &AdminHandler{
		withdrawalService: withdrawalService,
		walletService:     walletService,
	}
}

// ListPendingWithdrawals returns the approval queue, oldest first.
func (h *AdminHandler) ListPendingWithdrawals(c *fiber.Ctx) error {
	pending, err := h.withdrawalService.ListPending(c.Context())
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, fiber.Map{
		"withdrawals": pending,
	})
}

func (h *AdminHandler) ApproveWithdrawal(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	w, err := h.withdrawalService.Approve(c.Context(), claims.UserID, c.Params("id"))
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, fiber.Map{
		"withdrawal": w,
	})
}

func (h *AdminHandler) RejectWithdrawal(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	w, err := h.withdrawalService.Reject(c.Context(), claims.UserID, c.Params("id"))
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, fiber.Map{
		"withdrawal": w,
	})
}

func (h *AdminHandler) CompleteWithdrawal(c *fiber.Ctx) error {
	var input struct {
		PayoutRef string `json:"payout_ref"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request format")
	}
	if input.PayoutRef == "" {
		return response.BadRequest(c, "payout_ref is required")
	}

	w, err := h.withdrawalService.Complete(c.Context(), c.Params("id"), input.PayoutRef)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, fiber.Map{
		"withdrawal": w,
	})
}

// AuditUser replays a user's ledger against their stored balances.
func (h *AdminHandler) AuditUser(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil || userID <= 0 {
		return response.BadRequest(c, "invalid user id")
	}

	entries, err := h.walletService.Audit(c.Context(), uint(userID))
	if err != nil {
		return response.Domain(c, err)
	}

	consistent := true
	for _, e := range entries {
		if !e.Consistent {
			consistent = false
			break
		}
	}
	return response.Success(c, fiber.Map{
		"consistent": consistent,
		"wallets":    entries,
	})
}
