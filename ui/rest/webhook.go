package rest

import (
	"encoding/json"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/arkadyvz/visorbot/config"
	domainBot "github.com/arkadyvz/visorbot/domains/bot"
	"github.com/arkadyvz/visorbot/infrastructure/telegram"
	"github.com/arkadyvz/visorbot/pkg/botmonitor"
	pkgError "github.com/arkadyvz/visorbot/pkg/error"
	"github.com/arkadyvz/visorbot/validations"
)

type Webhook struct {
	Dispatcher domainBot.IDispatcherUsecase
	Transport  domainBot.Transport
	Monitor    *botmonitor.Monitor
}

func InitRestWebhook(app fiber.Router, dispatcher domainBot.IDispatcherUsecase, transport domainBot.Transport, monitor *botmonitor.Monitor) Webhook {
	handler := Webhook{
		Dispatcher: dispatcher,
		Transport:  transport,
		Monitor:    monitor,
	}

	app.Post("/webhook", handler.Receive)
	app.Post("/set_webhook", handler.SetWebhook)

	return handler
}

// Receive handles one Telegram update callback. Dispatch runs synchronously
// before the response so the platform can retry genuinely dropped deliveries.
func (h *Webhook) Receive(c *fiber.Ctx) error {
	if !h.Transport.Available() {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Bot not initialized",
		})
	}

	body := c.Body()
	if len(body) == 0 {
		return rejectRequest(c, pkgError.BadRequestError("No data received"))
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		logrus.Errorf("[WEBHOOK] malformed update payload: %v", err)
		h.Monitor.IncrErrors()
		return rejectRequest(c, pkgError.BadRequestError("Invalid update payload"))
	}

	if normalized, ok := telegram.NormalizeUpdate(update); ok {
		h.Dispatcher.Dispatch(c.UserContext(), normalized)
	} else {
		logrus.Debugf("[WEBHOOK] ignoring unsupported update %d", update.UpdateID)
	}

	h.Monitor.Touch()
	return c.JSON(fiber.Map{"status": "ok"})
}

// SetWebhook registers the callback URL with Telegram. The body may carry an
// explicit URL, otherwise the configured base URL is used.
func (h *Webhook) SetWebhook(c *fiber.Ctx) error {
	if !h.Transport.Available() {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Bot token not configured",
		})
	}

	var request domainBot.SetWebhookRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&request); err != nil {
			return rejectRequest(c, pkgError.BadRequestError("Invalid request body"))
		}
	}

	if err := validations.ValidateSetWebhook(c.UserContext(), request); err != nil {
		if typed, ok := err.(pkgError.GenericError); ok {
			return rejectRequest(c, typed)
		}
		return rejectRequest(c, pkgError.BadRequestError(err.Error()))
	}

	webhookURL := request.URL
	if webhookURL == "" {
		if config.WebhookBaseURL == "" {
			return rejectRequest(c, pkgError.BadRequestError("WEBHOOK_URL is not configured"))
		}
		webhookURL = config.WebhookBaseURL + "/webhook"
	}

	if err := h.Transport.SetWebhook(c.UserContext(), webhookURL); err != nil {
		logrus.Errorf("[WEBHOOK] set webhook: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": "webhook set", "url": webhookURL})
}

// rejectRequest answers with the typed error's own status code, keeping the
// flat {"error": ...} body Telegram tooling expects.
func rejectRequest(c *fiber.Ctx, err pkgError.GenericError) error {
	return c.Status(err.StatusCode()).JSON(fiber.Map{"error": err.Error()})
}
