package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystal-dz/storefront_api/shared"
)

type fakeVerifier struct {
	tokens map[string]string
}

func (f fakeVerifier) ExtractTokenFromHeader(authHeader string) (string, error) {
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func (f fakeVerifier) VerifyJWTToken(token string) (string, error) {
	role, ok := f.tokens[token]
	if !ok {
		return "", errors.New("invalid token")
	}
	return role, nil
}

func newTestApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if appErr, ok := shared.GetAppError(err); ok {
				return c.SendStatus(appErr.StatusCode)
			}
			return c.SendStatus(http.StatusInternalServerError)
		},
	})
	app.Get("/", append(handlers, func(c *fiber.Ctx) error {
		subject, _ := c.Locals(shared.AdminSubject).(string)
		return c.SendString(subject)
	})...)
	return app
}

func TestRequireRole(t *testing.T) {
	verifier := fakeVerifier{tokens: map[string]string{"good": "admin", "other": "viewer"}}
	app := newTestApp(RequireRole(verifier, "admin"))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"unknown token", "Bearer forged", http.StatusUnauthorized},
		{"wrong role", "Bearer other", http.StatusUnauthorized},
		{"admin", "Bearer good", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
