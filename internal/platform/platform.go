package platform

import (
	"context"

	"github.com/ersinak/upload-dispatcher/internal/domain"
)

// Publisher is the outbound publish port for one platform. Implementations
// are opaque to the dispatch loop: they may log in, transcode, and block for
// arbitrarily long. The only contract is that Publish eventually returns nil
// or an error describing the failure.
type Publisher interface {
	Service() domain.Service
	Publish(ctx context.Context, req PublishRequest) error
}

// PublishRequest carries the canonical file path and the caption to post.
type PublishRequest struct {
	FilePath string
	Caption  string
}
