package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coachhub-api/internal/config"
	"github.com/noah-isme/coachhub-api/internal/handler"
)

func TestHealthCheckReportsProbes(t *testing.T) {
	healthy := true
	app := fiber.New()
	app.Get("/health", handler.HealthCheck(config.Config{AppName: "CoachHub", AppEnv: "test"}, map[string]handler.Probe{
		"database": func(context.Context) error { return nil },
		"redis": func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("connection refused")
		},
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var ok envelope[handler.HealthResponse]
	decodeResponse(t, resp, &ok)
	require.Equal(t, "ok", ok.Data.Status)
	require.Equal(t, "CoachHub", ok.Data.Service)
	require.Equal(t, map[string]string{"database": "ok", "redis": "ok"}, ok.Data.Dependencies)

	healthy = false
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	var degraded envelope[handler.HealthResponse]
	decodeResponse(t, resp, &degraded)
	require.False(t, degraded.Success)
	require.Equal(t, "degraded", degraded.Data.Status)
	require.Equal(t, "connection refused", degraded.Data.Dependencies["redis"])
}

func TestHealthRouteCarriesApplicationHeader(t *testing.T) {
	a := setupApp(t)
	resp := a.do(t, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "CoachHub Test", resp.Header.Get("X-Application"))
}
