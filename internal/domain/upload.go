package domain

import (
	"fmt"
	"strings"
	"time"
)

// UploadStatus is the two-state outcome of a publish attempt.
type UploadStatus string

const (
	UploadStatusSuccess UploadStatus = "success"
	UploadStatusFailed  UploadStatus = "failed"
)

func (s UploadStatus) String() string { return string(s) }

func (s UploadStatus) IsValid() bool {
	switch s {
	case UploadStatusSuccess, UploadStatusFailed:
		return true
	}
	return false
}

func ParseUploadStatusFromString(s string) (UploadStatus, error) {
	st := UploadStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid upload status %q", ErrValidation, s)
	}
	return st, nil
}

// Service identifies an external platform a video can be published to.
type Service string

const (
	ServiceTikTok    Service = "tiktok"
	ServiceInstagram Service = "instagram"
	ServiceYouTube   Service = "youtube"
)

func (s Service) String() string { return string(s) }

func (s Service) IsValid() bool {
	switch s {
	case ServiceTikTok, ServiceInstagram, ServiceYouTube:
		return true
	}
	return false
}

func ParseServiceFromString(s string) (Service, error) {
	svc := Service(strings.ToLower(strings.TrimSpace(s)))
	if !svc.IsValid() {
		return "", fmt.Errorf("%w: invalid service %q", ErrValidation, s)
	}
	return svc, nil
}

// UploadAttempt records the outcome of one attempt to publish one video to
// one service. The ledger is append-only: rows are created by the dispatch
// loop and never updated or deleted.
type UploadAttempt struct {
	ID         int64
	VideoID    int64
	Service    Service
	Status     UploadStatus
	Error      *string
	CreatedAt  time.Time
	UploadedAt *time.Time
}

// NewSuccessAttempt builds a success row, stamping both creation and
// completion time.
func NewSuccessAttempt(videoID int64, service Service, at time.Time) *UploadAttempt {
	completed := at
	return &UploadAttempt{
		VideoID:    videoID,
		Service:    service,
		Status:     UploadStatusSuccess,
		CreatedAt:  at,
		UploadedAt: &completed,
	}
}

// NewFailedAttempt builds a failure row carrying the error message.
func NewFailedAttempt(videoID int64, service Service, message string, at time.Time) *UploadAttempt {
	return &UploadAttempt{
		VideoID:   videoID,
		Service:   service,
		Status:    UploadStatusFailed,
		Error:     &message,
		CreatedAt: at,
	}
}

func (a *UploadAttempt) Validate() error {
	if a.VideoID <= 0 {
		return fmt.Errorf("%w: video id is required", ErrValidation)
	}
	if !a.Service.IsValid() {
		return fmt.Errorf("%w: invalid service %q", ErrValidation, a.Service)
	}
	if !a.Status.IsValid() {
		return fmt.Errorf("%w: invalid upload status %q", ErrValidation, a.Status)
	}
	if a.Status == UploadStatusFailed && (a.Error == nil || strings.TrimSpace(*a.Error) == "") {
		return fmt.Errorf("%w: failed attempt requires an error message", ErrValidation)
	}
	if a.Status == UploadStatusSuccess && a.Error != nil {
		return fmt.Errorf("%w: success attempt must not carry an error", ErrValidation)
	}
	if a.Status == UploadStatusSuccess && a.UploadedAt == nil {
		return fmt.Errorf("%w: success attempt requires a completion time", ErrValidation)
	}
	if a.Status == UploadStatusFailed && a.UploadedAt != nil {
		return fmt.Errorf("%w: failed attempt must not carry a completion time", ErrValidation)
	}
	return nil
}
