package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"custora/internal/models"
	"custora/internal/providers/exchange"
	"custora/internal/services/deposit"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "hook-secret"

// fakeDepositService records which transaction ids were verified.
type fakeDepositService struct {
	outcome  string
	verified []string
	address  string
}

func (f *fakeDepositService) SubmitClaim(ctx context.Context, userID uint, txID string, amountUSD float64, asset, network string) (*models.Deposit, error) {
	return nil, nil
}

func (f *fakeDepositService) GetClaim(ctx context.Context, userID uint, txID string) (*models.Deposit, error) {
	return nil, nil
}

func (f *fakeDepositService) ListClaims(ctx context.Context, userID uint, limit, offset int) ([]models.Deposit, error) {
	return nil, nil
}

func (f *fakeDepositService) VerifyAndConfirm(ctx context.Context, txID string) (*deposit.ConfirmResult, error) {
	f.verified = append(f.verified, txID)
	return &deposit.ConfirmResult{Outcome: f.outcome}, nil
}

func (f *fakeDepositService) VerifyAndConfirmEvent(ctx context.Context, ev exchange.DepositEvent) (*deposit.ConfirmResult, error) {
	return f.VerifyAndConfirm(ctx, ev.TxID)
}

func (f *fakeDepositService) DepositAddress() string { return f.address }

func webhookApp(svc deposit.Service) *fiber.App {
	app := fiber.New()
	h := NewWebhookHandler(svc, webhookSecret, nil)
	app.Post("/webhooks/deposits", h.HandleDeposit)
	return app
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(t *testing.T, app *fiber.App, body []byte, signature string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/deposits", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Webhook-Signature", signature)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestWebhookConfirmed(t *testing.T) {
	svc := &fakeDepositService{outcome: deposit.OutcomeConfirmed}
	app := webhookApp(svc)

	body := []byte(`{"type":"deposit","txId":"tx-1","amount":"100.00","asset":"USDT","network":"TRC20","status":1,"address":"","insertTime":1700000000000}`)
	resp := postWebhook(t, app, body, sign(body))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"tx-1"}, svc.verified)
}

func TestWebhookIgnoredOutcomes(t *testing.T) {
	for _, outcome := range []string{deposit.OutcomeAlreadyConfirmed, deposit.OutcomeNoClaim, deposit.OutcomeNotSettled} {
		t.Run(outcome, func(t *testing.T) {
			svc := &fakeDepositService{outcome: outcome}
			app := webhookApp(svc)

			body := []byte(`{"type":"deposit","txId":"tx-1"}`)
			resp := postWebhook(t, app, body, sign(body))
			assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		})
	}
}

func TestWebhookNonDepositTypeIgnored(t *testing.T) {
	svc := &fakeDepositService{outcome: deposit.OutcomeConfirmed}
	app := webhookApp(svc)

	body := []byte(`{"type":"withdrawal","txId":"tx-9"}`)
	resp := postWebhook(t, app, body, sign(body))

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Empty(t, svc.verified)
}

func TestWebhookBadSignature(t *testing.T) {
	svc := &fakeDepositService{outcome: deposit.OutcomeConfirmed}
	app := webhookApp(svc)

	body := []byte(`{"type":"deposit","txId":"tx-1"}`)

	resp := postWebhook(t, app, body, "deadbeef")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postWebhook(t, app, body, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A signature over different bytes does not transfer.
	resp = postWebhook(t, app, body, sign([]byte(`{"type":"deposit","txId":"tx-2"}`)))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.Empty(t, svc.verified, "unverified payloads must never reach the service")
}

func TestWebhookMalformedPayload(t *testing.T) {
	svc := &fakeDepositService{outcome: deposit.OutcomeConfirmed}
	app := webhookApp(svc)

	for _, body := range [][]byte{[]byte(`not-json`), []byte(`{"type":"deposit"}`), []byte(`{"type":"deposit","amount":"5.00"}`)} {
		resp := postWebhook(t, app, body, sign(body))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
	assert.Empty(t, svc.verified)
}

func TestWebhookForeignAddressIgnored(t *testing.T) {
	svc := &fakeDepositService{outcome: deposit.OutcomeConfirmed, address: "our-address"}
	app := webhookApp(svc)

	body := []byte(`{"type":"deposit","txId":"tx-1","address":"someone-elses-address"}`)
	resp := postWebhook(t, app, body, sign(body))

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Empty(t, svc.verified)
}
