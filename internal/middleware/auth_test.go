package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"custora/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims *models.UserClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func testApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	chain := append([]fiber.Handler{Auth()}, handlers...)
	chain = append(chain, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/protected", chain...)
	return app
}

func request(t *testing.T, app *fiber.App, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func userClaims(userID uint, role string, permissions ...string) *models.UserClaims {
	return &models.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID:      userID,
		Role:        role,
		Permissions: permissions,
	}
}

func TestAuthAcceptsValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := testApp()

	token := signToken(t, userClaims(1, "user"), "test-secret")
	resp := request(t, app, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRejectsBadTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := testApp()

	resp := request(t, app, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = request(t, app, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Signed with the wrong secret.
	resp = request(t, app, signToken(t, userClaims(1, "user"), "other-secret"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Expired.
	expired := userClaims(1, "user")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	resp = request(t, app, signToken(t, expired, "test-secret"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHasPermission(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := testApp(HasPermission(models.PermissionTransferWrite))

	withPerm := signToken(t, userClaims(1, "user", models.PermissionTransferWrite), "test-secret")
	resp := request(t, app, withPerm)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	withoutPerm := signToken(t, userClaims(1, "user", models.PermissionWalletRead), "test-secret")
	resp = request(t, app, withoutPerm)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admins pass any permission check.
	admin := signToken(t, userClaims(9, "admin"), "test-secret")
	resp = request(t, app, admin)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminOnly(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := testApp(AdminOnly)

	resp := request(t, app, signToken(t, userClaims(1, "user"), "test-secret"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = request(t, app, signToken(t, userClaims(9, "admin"), "test-secret"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
