package bot

import "context"

type UpdateKind string

const (
	KindCommand UpdateKind = "command"
	KindText    UpdateKind = "text"
	KindPhoto   UpdateKind = "photo"
)

// InboundUpdate is one normalized event from the Telegram webhook. It lives
// for a single webhook call and is discarded after handling.
type InboundUpdate struct {
	Kind      UpdateKind
	ChatID    int64
	MessageID int

	// Command name without the leading slash, set when Kind is KindCommand.
	Command string

	// Text body, set when Kind is KindText.
	Text string

	// Largest photo size file reference and its optional caption, set when
	// Kind is KindPhoto.
	PhotoFileID string
	Caption     string
}

type IDispatcherUsecase interface {
	// Dispatch routes the update to its handler. Failures degrade the reply
	// and bump the error counter; they are never raised to the webhook.
	Dispatch(ctx context.Context, update InboundUpdate)
}

// SetWebhookRequest optionally overrides the configured webhook base URL.
type SetWebhookRequest struct {
	URL string `json:"url"`
}

// TextGenerator is the generative-AI adapter. Both operations fold failures
// into a fixed user-facing string and never return an error.
type TextGenerator interface {
	Available() bool
	GenerateReply(ctx context.Context, text string) string
	AnalyzeImage(ctx context.Context, image []byte) string
}

// ImageAnnotator is the image-annotation adapter, same failure contract as
// TextGenerator.
type ImageAnnotator interface {
	Available() bool
	AnalyzeImage(ctx context.Context, image []byte) string
}

// BackgroundRemover wraps the background-removal API. Unlike the analysis
// adapters it surfaces a descriptive error so the dispatcher can append a
// failure line to the reply.
type BackgroundRemover interface {
	Available() bool
	RemoveBackground(ctx context.Context, image []byte) ([]byte, error)
	AccountInfo(ctx context.Context) map[string]any
}

// Transport sends replies back to the chat platform and fetches inbound
// media.
type Transport interface {
	Available() bool
	SendText(ctx context.Context, chatID int64, text string, replyTo int) error
	SendPhoto(ctx context.Context, chatID int64, photo []byte, caption string) error
	SendChatAction(ctx context.Context, chatID int64, action string) error
	DownloadFile(ctx context.Context, fileID, destPath string) error
	SetWebhook(ctx context.Context, webhookURL string) error
}
