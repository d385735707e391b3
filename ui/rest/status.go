package rest

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/gofiber/fiber/v2"

	domainBot "github.com/arkadyvz/visorbot/domains/bot"
	domainHealth "github.com/arkadyvz/visorbot/domains/health"
	"github.com/arkadyvz/visorbot/pkg/botmonitor"
)

//go:embed dashboard.html
var dashboardHTML string

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardHTML))

type Status struct {
	Monitor  *botmonitor.Monitor
	Health   domainHealth.IHealthUsecase
	RemoveBg domainBot.BackgroundRemover
}

func InitRestStatus(app fiber.Router, monitor *botmonitor.Monitor, health domainHealth.IHealthUsecase, removeBg domainBot.BackgroundRemover) Status {
	handler := Status{
		Monitor:  monitor,
		Health:   health,
		RemoveBg: removeBg,
	}

	app.Get("/status", handler.GetStatus)
	app.Get("/health", handler.GetHealth)
	app.Get("/", handler.Dashboard)

	return handler
}

func (h *Status) GetStatus(c *fiber.Ctx) error {
	return c.JSON(h.Monitor.Snapshot())
}

func (h *Status) GetHealth(c *fiber.Ctx) error {
	return c.JSON(h.Health.Check(c.UserContext()))
}

type dashboardData struct {
	Snapshot botmonitor.Snapshot
	Health   domainHealth.HealthStatus
	Account  map[string]any
}

// Dashboard renders the HTML status page.
func (h *Status) Dashboard(c *fiber.Ctx) error {
	data := dashboardData{
		Snapshot: h.Monitor.Snapshot(),
		Health:   h.Health.Check(c.UserContext()),
	}
	if h.RemoveBg.Available() {
		data.Account = h.RemoveBg.AccountInfo(c.UserContext())
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, data); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("failed to render dashboard")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}
