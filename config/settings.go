package config

import (
	"os"
	"strconv"
	"strings"
)

var (
	AppVersion = "v1.0.0"
	AppPort    = "5000"
	AppDebug   = false

	// Externally reachable base URL, used by /set_webhook to register
	// <WebhookBaseURL>/webhook with Telegram.
	WebhookBaseURL = ""

	PathTemp = "storages/temp"

	TelegramBotToken string

	GeminiAPIKey    string
	GeminiTextModel = "gemini-2.5-flash"
	GeminiProModel  = "gemini-2.5-pro"

	VisionAPIKey   string
	VisionEndpoint = "https://vision.googleapis.com/v1/images:annotate"

	RemoveBgAPIKey   string
	RemoveBgEndpoint = "https://api.remove.bg/v1.0/removebg"

	// Outbound HTTP budgets. None of the third-party APIs get retries,
	// so a hung call must not pin the request handler longer than this.
	HTTPTimeoutSeconds     = 30
	RemoveBgAccountTimeout = 10

	// remove.bg rejects uploads above ~12MB; oversized payloads are
	// re-encoded down to the target before upload.
	RemoveBgMaxUploadBytes    int64 = 12 * 1024 * 1024
	RemoveBgCompressTarget    int64 = 10 * 1024 * 1024
	RemoveBgCompressMaxPixels       = 2048
	RemoveBgQualityStart            = 85
	RemoveBgQualityStep             = 10
	RemoveBgQualityFloor            = 10

	MonitorEventBuffer = 200
)

func init() {
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")); v != "" {
		TelegramBotToken = v
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); v != "" {
		GeminiAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("GOOGLE_VISION_API_KEY")); v != "" {
		VisionAPIKey = v
	}
	// REMOVE_BG_API_KEY is the documented name, BACKGROUNDBG_API_KEY is
	// kept as a legacy alias.
	if v := strings.TrimSpace(os.Getenv("REMOVE_BG_API_KEY")); v != "" {
		RemoveBgAPIKey = v
	} else if v := strings.TrimSpace(os.Getenv("BACKGROUNDBG_API_KEY")); v != "" {
		RemoveBgAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("WEBHOOK_URL")); v != "" {
		WebhookBaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv("HTTP_TIMEOUT_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			HTTPTimeoutSeconds = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_TEXT_MODEL")); v != "" {
		GeminiTextModel = v
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_PRO_MODEL")); v != "" {
		GeminiProModel = v
	}
}
