package platform

import (
	"fmt"
	"os"

	"github.com/ersinak/upload-dispatcher/internal/domain"
	"go.uber.org/zap"
)

// knownServices fixes the dispatch order of services within a cycle.
var knownServices = []domain.Service{
	domain.ServiceTikTok,
	domain.ServiceInstagram,
	domain.ServiceYouTube,
}

// enablingEnv maps each known service to the environment variable whose
// presence (non-emptiness) enables it. A service without its enabling
// variable set is excluded from dispatch entirely: never attempted, never
// recorded as failed.
var enablingEnv = map[domain.Service]string{
	domain.ServiceTikTok:    "TIKTOK_API_KEY",
	domain.ServiceInstagram: "INSTAGRAM_USERNAME",
	domain.ServiceYouTube:   "YOUTUBE_CLIENT_ID",
}

// Registry maps service identifiers to their enabled state and publish
// capability.
type Registry struct {
	sessions *SessionStore
	logger   *zap.Logger
}

func NewRegistry(sessions *SessionStore, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions: sessions,
		logger:   logger,
	}
}

// Enabled reads the environment on every call, so credential changes take
// effect at the next cycle without restarting the process.
func (r *Registry) Enabled() []domain.Service {
	enabled := make([]domain.Service, 0, len(knownServices))
	for _, service := range knownServices {
		if os.Getenv(enablingEnv[service]) != "" {
			enabled = append(enabled, service)
		}
	}
	return enabled
}

// Publisher constructs the platform client for a service from the current
// environment credentials. Construction errors (incomplete credentials) are
// ordinary publish failures from the dispatcher's point of view.
func (r *Registry) Publisher(service domain.Service) (Publisher, error) {
	switch service {
	case domain.ServiceTikTok:
		return NewTikTokPublisher(os.Getenv("TIKTOK_API_KEY"))
	case domain.ServiceInstagram:
		return NewInstagramPublisher(
			os.Getenv("INSTAGRAM_USERNAME"),
			os.Getenv("INSTAGRAM_PASSWORD"),
			r.sessions,
			r.logger,
		)
	case domain.ServiceYouTube:
		return NewYouTubePublisher(
			os.Getenv("YOUTUBE_CLIENT_ID"),
			os.Getenv("YOUTUBE_CLIENT_SECRET"),
			r.sessions,
			r.logger,
		)
	default:
		return nil, fmt.Errorf("%w: unknown service %q", domain.ErrValidation, service)
	}
}
