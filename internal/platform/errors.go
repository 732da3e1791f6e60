package platform

import (
	"fmt"
	"strings"

	"github.com/ersinak/upload-dispatcher/internal/domain"
)

// PublishError describes a failed platform publish call. Its message text is
// what ends up in the upload ledger.
type PublishError struct {
	Service    domain.Service
	StatusCode int
	Message    string
	Cause      error
}

func (e *PublishError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	if e.Service != "" {
		parts = append(parts, fmt.Sprintf("%s publish error", e.Service))
	} else {
		parts = append(parts, "publish error")
	}

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *PublishError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
