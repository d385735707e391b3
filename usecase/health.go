package usecase

import (
	"context"
	"time"

	domainBot "github.com/arkadyvz/visorbot/domains/bot"
	domainHealth "github.com/arkadyvz/visorbot/domains/health"
)

type healthService struct {
	transport domainBot.Transport
	gemini    domainBot.TextGenerator
	vision    domainBot.ImageAnnotator
	removeBg  domainBot.BackgroundRemover
}

func NewHealthService(
	transport domainBot.Transport,
	gemini domainBot.TextGenerator,
	vision domainBot.ImageAnnotator,
	removeBg domainBot.BackgroundRemover,
) domainHealth.IHealthUsecase {
	return &healthService{
		transport: transport,
		gemini:    gemini,
		vision:    vision,
		removeBg:  removeBg,
	}
}

// Check reports credential presence per adapter. It never performs a network
// round trip.
func (s *healthService) Check(_ context.Context) domainHealth.HealthStatus {
	return domainHealth.HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Services: domainHealth.ServiceHealth{
			Telegram:   s.transport.Available(),
			Gemini:     s.gemini.Available(),
			Vision:     s.vision.Available(),
			Background: s.removeBg.Available(),
		},
	}
}
