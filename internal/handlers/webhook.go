package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"custora/internal/services/deposit"
	"custora/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// WebhookHandler is the push ingress for provider deposit notifications. The
// signature proves the sender knows the shared secret; the payload itself is
// still untrusted, so confirmation re-fetches the event from the provider
// rather than crediting whatever the body says.
type WebhookHandler struct {
	depositService deposit.Service
	secret         []byte
	log            *logrus.Logger
}

func NewWebhookHandler(depositService deposit.Service, secret string, log *logrus.Logger) *WebhookHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WebhookHandler{
		depositService: depositService,
		secret:         []byte(secret),
		log:            log,
	}
}

// depositNotification is the provider's push payload. Field names follow the
// provider's deposit-event schema, camelCased like the polling API.
type depositNotification struct {
	Type       string  `json:"type"`
	TxID       string  `json:"txId"`
	Amount     float64 `json:"amount,string"`
	Asset      string  `json:"asset"`
	Network    string  `json:"network"`
	Status     int     `json:"status"`
	Address    string  `json:"address"`
	InsertTime int64   `json:"insertTime"`
}

func (h *WebhookHandler) HandleDeposit(c *fiber.Ctx) error {
	body := c.Body()

	signature := c.Get("X-Webhook-Signature")
	if !h.validSignature(body, signature) {
		h.log.Warn("webhook rejected: bad signature")
		return response.Error(c, fiber.StatusUnauthorized, "invalid signature")
	}

	var payload depositNotification
	if err := json.Unmarshal(body, &payload); err != nil {
		return response.BadRequest(c, "malformed payload")
	}
	if payload.Type != "deposit" {
		// Signed, but not an event this endpoint handles.
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"outcome": "ignored"})
	}
	if payload.TxID == "" {
		return response.BadRequest(c, "malformed payload")
	}

	if payload.Address != "" && payload.Address != h.depositService.DepositAddress() {
		// Signed but aimed at an address we do not custody.
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"outcome": "ignored"})
	}

	result, err := h.depositService.VerifyAndConfirm(c.Context(), payload.TxID)
	if err != nil {
		h.log.WithError(err).WithField("tx_id", payload.TxID).Error("webhook reconciliation failed")
		return response.ServerError(c, "reconciliation failed")
	}

	status := fiber.StatusAccepted
	if result.Outcome == deposit.OutcomeConfirmed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{"outcome": result.Outcome})
}

func (h *WebhookHandler) validSignature(body []byte, signature string) bool {
	if signature == "" || len(h.secret) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
