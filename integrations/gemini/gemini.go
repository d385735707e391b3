package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/arkadyvz/visorbot/config"
)

const (
	unavailableReply = "❌ Gemini AI service is not available. Please check API key configuration."
	failedReply      = "❌ I encountered an error while processing your message. Please try again later."
	emptyReply       = "I'm sorry, I couldn't generate a response. Please try again."

	imageUnavailableReply = "❌ Gemini AI service is not available."
	imageFailedReply      = "❌ Error analyzing image with AI. Please try again."
	imageEmptyReply       = "I couldn't analyze this image. Please try with a different image."
)

const replyPromptTemplate = `You are a helpful AI assistant. Please provide a clear, informative, and friendly response to the following message:

%s

Keep your response concise but comprehensive. Use emojis appropriately to make the conversation engaging.`

const imagePrompt = `Analyze this image in detail. Please describe:
1. Main subjects and objects
2. Setting and environment
3. Colors, lighting, and composition
4. Any text visible in the image
5. Overall mood or atmosphere
6. Notable details or interesting aspects

Provide a comprehensive but concise analysis.`

// Service wraps the Gemini API behind the bot's text-generation contract.
// Every operation folds failures into a fixed user-facing string.
type Service struct {
	client    *genai.Client
	textModel string
	proModel  string
	timeout   time.Duration
}

func NewService() *Service {
	svc := &Service{
		textModel: config.GeminiTextModel,
		proModel:  config.GeminiProModel,
		timeout:   time.Duration(config.HTTPTimeoutSeconds) * time.Second,
	}

	if config.GeminiAPIKey == "" {
		logrus.Error("[GEMINI] GEMINI_API_KEY environment variable is required")
		return svc
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logrus.Errorf("[GEMINI] failed to initialize client: %v", err)
		return svc
	}

	svc.client = client
	logrus.Info("[GEMINI] service initialized")
	return svc
}

func (s *Service) Available() bool {
	return s.client != nil
}

// GenerateReply answers a plain text message with a conversational prompt.
func (s *Service) GenerateReply(ctx context.Context, text string) string {
	if s.client == nil {
		return unavailableReply
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(fmt.Sprintf(replyPromptTemplate, text), genai.RoleUser),
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.textModel, contents, nil)
	if err != nil {
		logrus.Errorf("[GEMINI] generate reply: %v", err)
		return failedReply
	}

	if out := resp.Text(); out != "" {
		return out
	}
	return emptyReply
}

// AnalyzeImage runs the multimodal model over raw image bytes with a fixed
// structured prompt.
func (s *Service) AnalyzeImage(ctx context.Context, image []byte) string {
	if s.client == nil {
		return imageUnavailableReply
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	parts := []*genai.Part{
		genai.NewPartFromBytes(image, "image/jpeg"),
		genai.NewPartFromText(imagePrompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := s.client.Models.GenerateContent(ctx, s.proModel, contents, nil)
	if err != nil {
		logrus.Errorf("[GEMINI] analyze image: %v", err)
		return imageFailedReply
	}

	if out := resp.Text(); out != "" {
		return out
	}
	return imageEmptyReply
}
