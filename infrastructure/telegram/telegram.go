package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/arkadyvz/visorbot/config"
	domainBot "github.com/arkadyvz/visorbot/domains/bot"
)

// Client is the Telegram Bot API transport. A missing or rejected token
// leaves the client constructed but unavailable, matching the adapters'
// capability model.
type Client struct {
	api        *tgbotapi.BotAPI
	httpClient *http.Client
}

func NewClient() *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(config.HTTPTimeoutSeconds) * time.Second,
		},
	}

	if config.TelegramBotToken == "" {
		logrus.Error("[TELEGRAM] TELEGRAM_BOT_TOKEN environment variable is required")
		return client
	}

	api, err := tgbotapi.NewBotAPIWithClient(config.TelegramBotToken, tgbotapi.APIEndpoint, client.httpClient)
	if err != nil {
		logrus.Errorf("[TELEGRAM] failed to authorize bot: %v", err)
		return client
	}

	logrus.Infof("[TELEGRAM] bot authorized as @%s", api.Self.UserName)
	client.api = api
	return client
}

func (c *Client) Available() bool {
	return c.api != nil
}

// SendText sends a Markdown message, optionally as a reply.
func (c *Client) SendText(_ context.Context, chatID int64, text string, replyTo int) error {
	if c.api == nil {
		return fmt.Errorf("telegram bot is not configured")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if replyTo != 0 {
		msg.ReplyToMessageID = replyTo
	}

	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendPhoto uploads photo bytes with a caption.
func (c *Client) SendPhoto(_ context.Context, chatID int64, photo []byte, caption string) error {
	if c.api == nil {
		return fmt.Errorf("telegram bot is not configured")
	}

	msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "processed.png", Bytes: photo})
	msg.Caption = caption

	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	return nil
}

// SendChatAction signals typing or upload progress; failures are only logged
// since the action is cosmetic.
func (c *Client) SendChatAction(_ context.Context, chatID int64, action string) error {
	if c.api == nil {
		return fmt.Errorf("telegram bot is not configured")
	}

	if _, err := c.api.Request(tgbotapi.NewChatAction(chatID, action)); err != nil {
		logrus.Warnf("[TELEGRAM] chat action %q: %v", action, err)
		return err
	}
	return nil
}

// DownloadFile resolves the file reference and streams it to destPath.
func (c *Client) DownloadFile(ctx context.Context, fileID, destPath string) error {
	if c.api == nil {
		return fmt.Errorf("telegram bot is not configured")
	}

	file, err := c.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(c.api.Token), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// SetWebhook registers webhookURL as the bot's update callback.
func (c *Client) SetWebhook(_ context.Context, webhookURL string) error {
	if c.api == nil {
		return fmt.Errorf("telegram bot is not configured")
	}

	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}

	if _, err := c.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

// NormalizeUpdate maps a raw Telegram update onto the dispatcher's inbound
// model. The second return is false for update types the bot does not handle
// (edits, callbacks, non-photo media).
func NormalizeUpdate(update tgbotapi.Update) (domainBot.InboundUpdate, bool) {
	msg := update.Message
	if msg == nil {
		return domainBot.InboundUpdate{}, false
	}

	normalized := domainBot.InboundUpdate{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
	}

	switch {
	case strings.HasPrefix(msg.Text, "/"):
		normalized.Kind = domainBot.KindCommand
		normalized.Command = commandName(msg)
	case len(msg.Photo) > 0:
		normalized.Kind = domainBot.KindPhoto
		// Telegram orders photo sizes ascending, take the largest.
		normalized.PhotoFileID = msg.Photo[len(msg.Photo)-1].FileID
		normalized.Caption = msg.Caption
	case msg.Text != "":
		normalized.Kind = domainBot.KindText
		normalized.Text = msg.Text
	default:
		return domainBot.InboundUpdate{}, false
	}

	return normalized, true
}

// commandName derives the bare command from a leading "/word". Webhook
// payloads carry no entities array, so the text itself is authoritative;
// an "@botname" suffix from group chats is stripped.
func commandName(msg *tgbotapi.Message) string {
	if msg.IsCommand() {
		return msg.Command()
	}

	word := strings.Fields(msg.Text)[0]
	word = strings.TrimPrefix(word, "/")
	if at := strings.Index(word, "@"); at != -1 {
		word = word[:at]
	}
	return word
}
