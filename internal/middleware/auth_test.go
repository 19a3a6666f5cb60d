package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "auth-provider-secret"

func sign(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", JWTProtected(&config.Config{AuthJWTSecret: testSecret}), func(c *fiber.Ctx) error {
		ident, err := CurrentUser(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).SendString(err.Error())
		}
		return c.JSON(fiber.Map{"id": ident.ID.String(), "email": ident.Email, "name": ident.Name})
	})
	return app
}

func TestJWTProtectedAndCurrentUser(t *testing.T) {
	userID := uuid.New()
	token := sign(t, jwt.MapClaims{
		"sub":           userID.String(),
		"email":         "asha@example.com",
		"exp":           time.Now().Add(time.Hour).Unix(),
		"user_metadata": map[string]interface{}{"full_name": "Asha Rao"},
	}, testSecret)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := newApp().Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, userID.String(), body["id"])
	assert.Equal(t, "asha@example.com", body["email"])
	assert.Equal(t, "Asha Rao", body["name"])
}

func TestJWTProtectedRejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong secret", "Bearer " + sign(t, jwt.MapClaims{"sub": uuid.NewString(), "exp": time.Now().Add(time.Hour).Unix()}, "other")},
		{"expired", "Bearer " + sign(t, jwt.MapClaims{"sub": uuid.NewString(), "exp": time.Now().Add(-time.Hour).Unix()}, testSecret)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := newApp().Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestCurrentUserRejectsNonUUIDSubject(t *testing.T) {
	token := sign(t, jwt.MapClaims{"sub": "not-a-uuid", "exp": time.Now().Add(time.Hour).Unix()}, testSecret)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := newApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
