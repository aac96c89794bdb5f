package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCorrelationIDPropagation(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		if GetCorrelationID(c) != CorrelationIDFromContext(c.UserContext()) {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(GetCorrelationID(c))
	})

	cases := []struct {
		name     string
		header   string
		value    string
		expected string
	}{
		{name: "incoming", header: HeaderCorrelationID, value: "abc-123", expected: "abc-123"},
		{name: "request id", header: fiber.HeaderXRequestID, value: "req-9", expected: "req-9"},
		{name: "oversized", header: HeaderCorrelationID, value: strings.Repeat("a", 200)},
		{name: "control characters", header: HeaderCorrelationID, value: "bad id"},
		{name: "missing"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusOK, resp.StatusCode)

			got := resp.Header.Get(HeaderCorrelationID)
			if tc.expected != "" {
				require.Equal(t, tc.expected, got)
				return
			}
			_, err = uuid.Parse(got)
			require.NoError(t, err)
		})
	}
}
