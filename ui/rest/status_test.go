package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainHealth "github.com/arkadyvz/visorbot/domains/health"
	"github.com/arkadyvz/visorbot/pkg/botmonitor"
)

func newStatusApp(monitor *botmonitor.Monitor, health *fakeHealth, remover *fakeRemover) *fiber.App {
	app := fiber.New()
	InitRestStatus(app, monitor, health, remover)
	return app
}

func TestGetStatus(t *testing.T) {
	monitor := botmonitor.New(10)
	monitor.Start()
	monitor.IncrMessages()
	monitor.IncrImages()

	app := newStatusApp(monitor, &fakeHealth{}, &fakeRemover{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/status", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "running", body["status"])
	assert.EqualValues(t, 1, body["messages_processed"])
	assert.EqualValues(t, 1, body["images_processed"])
	assert.Contains(t, body, "uptime")
}

func TestGetHealth(t *testing.T) {
	monitor := botmonitor.New(10)
	monitor.Start()

	health := &fakeHealth{status: domainHealth.HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Services: domainHealth.ServiceHealth{
			Telegram: true,
			Gemini:   true,
			Vision:   false,
		},
	}}

	app := newStatusApp(monitor, health, &fakeRemover{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body domainHealth.HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.True(t, body.Services.Telegram)
	assert.False(t, body.Services.Vision)
}

func TestDashboard(t *testing.T) {
	monitor := botmonitor.New(10)
	monitor.Start()
	monitor.IncrMessages()

	remover := &fakeRemover{
		available: true,
		account:   map[string]any{"data": map[string]any{"attributes": map[string]any{"api": "free"}}},
	}
	health := &fakeHealth{status: domainHealth.HealthStatus{Status: "healthy"}}

	app := newStatusApp(monitor, health, remover)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))

	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "running")
}

func TestDashboard_RemoverUnavailable(t *testing.T) {
	monitor := botmonitor.New(10)
	monitor.Start()

	app := newStatusApp(monitor, &fakeHealth{}, &fakeRemover{available: false})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
