package usecase

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/arkadyvz/visorbot/config"
	domainBot "github.com/arkadyvz/visorbot/domains/bot"
	"github.com/arkadyvz/visorbot/pkg/botmonitor"
	pkgUtils "github.com/arkadyvz/visorbot/pkg/utils"
)

const (
	welcomeMessage = `🤖 *Welcome to AI Assistant Bot!*

I can help you with:
• 💬 Text conversations using Gemini AI
• 🖼️ Image analysis with Google Vision
• 🎨 Background removal from images

Commands:
/start - Show this welcome message
/help - Get help information
/status - Check bot status

Just send me a message or image to get started!`

	helpMessage = `🔧 *How to use this bot:*

📝 *Text Messages:*
Send any text message and I'll respond using Gemini AI.

📸 *Images:*
Send an image and I'll:
• Analyze it using Google Vision API
• Provide detailed description
• Optionally remove background (use caption "remove background")

⚠️ Supported formats: JPEG, PNG, WebP
📏 Max file size: 20MB

Need more help? Contact support!`

	unknownCommandReply = "🤷 Unknown command. Use /help to see what I can do."
	textApologyReply    = "Sorry, I encountered an error processing your message. Please try again."
	photoApologyReply   = "Sorry, I couldn't process your image. Please try again with a different image."
	downloadFailedReply = "❌ Could not download image. Please try again."
	noAnalysisReply     = "I couldn't analyze this image. Please try with a different image."

	removalCaptionTrigger = "remove background"
	removedPhotoCaption   = "✨ Background removed!"
	removalDoneLine       = "✅ Background removal completed!"
	removalFailedLine     = "❌ Background removal failed. Please try again."

	// Adapters fold failures into replies carrying this marker; such output
	// is excluded from the aggregated analysis.
	errorMarker = "❌"
)

type dispatcherService struct {
	transport domainBot.Transport
	gemini    domainBot.TextGenerator
	vision    domainBot.ImageAnnotator
	removeBg  domainBot.BackgroundRemover
	monitor   *botmonitor.Monitor
	tempDir   string
}

func NewDispatcherService(
	transport domainBot.Transport,
	gemini domainBot.TextGenerator,
	vision domainBot.ImageAnnotator,
	removeBg domainBot.BackgroundRemover,
	monitor *botmonitor.Monitor,
) domainBot.IDispatcherUsecase {
	return &dispatcherService{
		transport: transport,
		gemini:    gemini,
		vision:    vision,
		removeBg:  removeBg,
		monitor:   monitor,
		tempDir:   config.PathTemp,
	}
}

func (s *dispatcherService) Dispatch(ctx context.Context, update domainBot.InboundUpdate) {
	s.monitor.Record(botmonitor.Event{Stage: "inbound", Kind: string(update.Kind), Status: "ok"})

	switch update.Kind {
	case domainBot.KindCommand:
		s.handleCommand(ctx, update)
	case domainBot.KindText:
		s.handleText(ctx, update)
	case domainBot.KindPhoto:
		s.handlePhoto(ctx, update)
	default:
		logrus.Warnf("[DISPATCH] unhandled update kind %q", update.Kind)
	}
}

func (s *dispatcherService) handleCommand(ctx context.Context, update domainBot.InboundUpdate) {
	var reply string
	switch update.Command {
	case "start":
		reply = welcomeMessage
	case "help":
		reply = helpMessage
	case "status":
		reply = s.statusReply()
	default:
		reply = unknownCommandReply
	}

	if err := s.transport.SendText(ctx, update.ChatID, reply, 0); err != nil {
		logrus.Errorf("[DISPATCH] command /%s reply: %v", update.Command, err)
		s.monitor.IncrErrors()
		s.monitor.Record(botmonitor.Event{Stage: "outbound", Kind: "command", Status: "error", Error: err.Error()})
		return
	}

	s.monitor.IncrMessages()
	s.monitor.Record(botmonitor.Event{Stage: "outbound", Kind: "command", Status: "ok"})
}

func (s *dispatcherService) statusReply() string {
	snap := s.monitor.Snapshot()
	return fmt.Sprintf(`📊 *Bot Status:* %s
⏰ *Uptime:* %s
📨 *Messages processed:* %d
🖼️ *Images processed:* %d
❌ *Errors:* %d
🕐 *Last update:* %s UTC`,
		snap.Status,
		snap.Uptime,
		snap.MessagesProcessed,
		snap.ImagesProcessed,
		snap.Errors,
		snap.LastUpdate.Format("2006-01-02 15:04:05"),
	)
}

func (s *dispatcherService) handleText(ctx context.Context, update domainBot.InboundUpdate) {
	logrus.Infof("[DISPATCH] processing text message: %.50s", update.Text)

	_ = s.transport.SendChatAction(ctx, update.ChatID, "typing")

	reply := s.gemini.GenerateReply(ctx, update.Text)

	if err := s.transport.SendText(ctx, update.ChatID, reply, update.MessageID); err != nil {
		logrus.Errorf("[DISPATCH] text reply: %v", err)
		_ = s.transport.SendText(ctx, update.ChatID, textApologyReply, 0)
		s.monitor.IncrErrors()
		s.monitor.Record(botmonitor.Event{Stage: "outbound", Kind: "text", Status: "error", Error: err.Error()})
		return
	}

	s.monitor.IncrMessages()
	s.monitor.Record(botmonitor.Event{Stage: "outbound", Kind: "text", Status: "ok"})
}

func (s *dispatcherService) handlePhoto(ctx context.Context, update domainBot.InboundUpdate) {
	logrus.Info("[DISPATCH] processing photo message")

	_ = s.transport.SendChatAction(ctx, update.ChatID, "upload_photo")

	imagePath := pkgUtils.TempFilePath(s.tempDir, "telegram", ".jpg")
	// The download is the only file written for the update; it must go away
	// on every exit path.
	defer pkgUtils.RemoveFile(imagePath)

	if err := s.transport.DownloadFile(ctx, update.PhotoFileID, imagePath); err != nil {
		logrus.Errorf("[DISPATCH] photo download: %v", err)
		_ = s.transport.SendText(ctx, update.ChatID, downloadFailedReply, 0)
		s.monitor.IncrErrors()
		s.monitor.Record(botmonitor.Event{Stage: "adapter", Kind: "photo", Status: "error", Error: err.Error()})
		return
	}

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		logrus.Errorf("[DISPATCH] photo read: %v", err)
		_ = s.transport.SendText(ctx, update.ChatID, photoApologyReply, 0)
		s.monitor.IncrErrors()
		return
	}

	var parts []string

	// Each adapter call is independently wrapped; a failing adapter only
	// drops its own section from the reply.
	if analysis := s.vision.AnalyzeImage(ctx, imageData); isUsableAnalysis(analysis) {
		parts = append(parts, "🔍 *Image Analysis:*\n"+analysis)
	}

	if analysis := s.gemini.AnalyzeImage(ctx, imageData); isUsableAnalysis(analysis) {
		parts = append(parts, "🤖 *AI Analysis:*\n"+analysis)
	}

	if wantsBackgroundRemoval(update.Caption) && s.removeBg.Available() {
		parts = append(parts, s.removeBackground(ctx, update.ChatID, imageData))
	}

	if len(parts) > 0 {
		if err := s.transport.SendText(ctx, update.ChatID, strings.Join(parts, "\n\n"), update.MessageID); err != nil {
			logrus.Errorf("[DISPATCH] photo reply: %v", err)
			s.monitor.IncrErrors()
		}
	} else {
		_ = s.transport.SendText(ctx, update.ChatID, noAnalysisReply, 0)
	}

	s.monitor.IncrImages()
	s.monitor.Record(botmonitor.Event{Stage: "outbound", Kind: "photo", Status: "ok"})
}

// removeBackground runs the removal adapter and sends the processed photo as
// its own reply. It returns the line appended to the analysis message.
func (s *dispatcherService) removeBackground(ctx context.Context, chatID int64, imageData []byte) string {
	processed, err := s.removeBg.RemoveBackground(ctx, imageData)
	if err != nil {
		logrus.Errorf("[DISPATCH] background removal: %v", err)
		s.monitor.Record(botmonitor.Event{Stage: "adapter", Kind: "photo", Status: "error", Error: err.Error()})
		return removalFailedLine
	}

	if err := s.transport.SendPhoto(ctx, chatID, processed, removedPhotoCaption); err != nil {
		logrus.Errorf("[DISPATCH] processed photo send: %v", err)
		s.monitor.IncrErrors()
		return removalFailedLine
	}

	return removalDoneLine
}

func wantsBackgroundRemoval(caption string) bool {
	return strings.Contains(strings.ToLower(caption), removalCaptionTrigger)
}

func isUsableAnalysis(analysis string) bool {
	return analysis != "" && !strings.HasPrefix(analysis, errorMarker)
}
