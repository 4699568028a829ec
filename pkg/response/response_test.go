package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performRequest(t *testing.T, h fiber.Handler) (int, ErrorResponse) {
	t.Helper()
	app := fiber.New()
	app.Get("/", h)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestErrorEnvelope(t *testing.T) {
	status, body := performRequest(t, func(c *fiber.Ctx) error {
		return Error(c, fiber.StatusBadRequest, CodeValidationError, "bad input", map[string]string{"Request": "min"})
	})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, CodeValidationError, body.Error.Code)
	assert.Equal(t, "bad input", body.Error.Message)
	assert.NotNil(t, body.Error.Details)
}

func TestTimeout(t *testing.T) {
	status, body := performRequest(t, func(c *fiber.Ctx) error {
		return Timeout(c, "Storefront request timed out")
	})

	assert.Equal(t, http.StatusGatewayTimeout, status)
	assert.Equal(t, CodeTimeout, body.Error.Code)
	assert.Equal(t, "Storefront request timed out", body.Error.Message)
	assert.Nil(t, body.Error.Details)
}

func TestStatusHelpers(t *testing.T) {
	cases := []struct {
		name    string
		handler fiber.Handler
		status  int
		code    string
	}{
		{"unauthorized", func(c *fiber.Ctx) error { return Unauthorized(c, "no token") }, http.StatusUnauthorized, CodeUnauthorized},
		{"not found", func(c *fiber.Ctx) error { return NotFound(c, "job not found") }, http.StatusNotFound, CodeNotFound},
		{"rate limited", func(c *fiber.Ctx) error { return RateLimited(c) }, http.StatusTooManyRequests, CodeRateLimited},
		{"provider error", func(c *fiber.Ctx) error { return ProviderError(c, "upstream down") }, http.StatusBadGateway, CodeProviderError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := performRequest(t, tc.handler)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, body.Error.Code)
		})
	}
}
