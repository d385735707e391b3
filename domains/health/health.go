package health

import (
	"context"
	"time"
)

type ServiceHealth struct {
	Telegram   bool `json:"telegram"`
	Gemini     bool `json:"gemini"`
	Vision     bool `json:"vision"`
	Background bool `json:"background"`
}

type HealthStatus struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Services  ServiceHealth `json:"services"`
}

type IHealthUsecase interface {
	Check(ctx context.Context) HealthStatus
}
