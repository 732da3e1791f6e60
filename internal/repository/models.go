package repository

import (
	"fmt"
	"time"

	"github.com/ersinak/upload-dispatcher/internal/domain"
)

// VideoModel is the persistence model for the videos table. The table is
// owned by the calendar UI; this model exists for reads only. Timestamps are
// stored as the collaborator writes them: taken_at as a naive local
// minute-precision string, uploaded_at as a UTC seconds string.
type VideoModel struct {
	ID               int64   `gorm:"primaryKey;autoIncrement"`
	FileHash         string  `gorm:"column:file_hash;type:text;not null"`
	OriginalFilename string  `gorm:"column:original_filename;type:text;not null"`
	Name             *string `gorm:"type:text"`
	Caption          *string `gorm:"type:text"`
	TakenAt          string  `gorm:"column:taken_at;type:text;not null"`
	UploadedAt       string  `gorm:"column:uploaded_at;type:text;not null"`
	SizeBytes        int64   `gorm:"column:size_bytes;not null"`
	MimeType         *string `gorm:"column:mime_type;type:text"`
}

func (VideoModel) TableName() string {
	return "videos"
}

// VideoUploadModel is the persistence model for video_uploads, the
// append-only attempt ledger owned exclusively by this process.
type VideoUploadModel struct {
	ID         int64   `gorm:"primaryKey;autoIncrement"`
	VideoID    int64   `gorm:"column:video_id;not null"`
	Service    string  `gorm:"type:text;not null"`
	Status     string  `gorm:"type:text;not null"`
	Error      *string `gorm:"type:text"`
	CreatedAt  string  `gorm:"column:created_at;type:text;not null"`
	UploadedAt *string `gorm:"column:uploaded_at;type:text"`
}

func (VideoUploadModel) TableName() string {
	return "video_uploads"
}

func videoModelToDomain(m *VideoModel) (*domain.Video, error) {
	if m == nil {
		return nil, nil
	}

	takenAt, err := time.ParseInLocation(domain.TakenAtLayout, m.TakenAt, time.Local)
	if err != nil {
		return nil, fmt.Errorf("video %d has malformed taken_at %q: %w", m.ID, m.TakenAt, err)
	}

	// uploaded_at carries seconds precision; tolerate minute precision from
	// older rows.
	uploadedAt, err := time.ParseInLocation(domain.LedgerTimeLayout, m.UploadedAt, time.UTC)
	if err != nil {
		uploadedAt, err = time.ParseInLocation(domain.TakenAtLayout, m.UploadedAt, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("video %d has malformed uploaded_at %q: %w", m.ID, m.UploadedAt, err)
		}
	}

	return &domain.Video{
		ID:               m.ID,
		FileHash:         m.FileHash,
		OriginalFilename: m.OriginalFilename,
		Name:             m.Name,
		Caption:          m.Caption,
		TakenAt:          takenAt,
		UploadedAt:       uploadedAt,
		SizeBytes:        m.SizeBytes,
		MimeType:         m.MimeType,
	}, nil
}

func uploadModelFromDomain(a *domain.UploadAttempt) *VideoUploadModel {
	if a == nil {
		return nil
	}

	var uploadedAt *string
	if a.UploadedAt != nil {
		value := a.UploadedAt.UTC().Format(domain.LedgerTimeLayout)
		uploadedAt = &value
	}

	return &VideoUploadModel{
		ID:         a.ID,
		VideoID:    a.VideoID,
		Service:    a.Service.String(),
		Status:     a.Status.String(),
		Error:      a.Error,
		CreatedAt:  a.CreatedAt.UTC().Format(domain.LedgerTimeLayout),
		UploadedAt: uploadedAt,
	}
}

func uploadModelToDomain(m *VideoUploadModel) (*domain.UploadAttempt, error) {
	if m == nil {
		return nil, nil
	}

	service, err := domain.ParseServiceFromString(m.Service)
	if err != nil {
		return nil, fmt.Errorf("upload %d: %w", m.ID, err)
	}
	status, err := domain.ParseUploadStatusFromString(m.Status)
	if err != nil {
		return nil, fmt.Errorf("upload %d: %w", m.ID, err)
	}
	createdAt, err := time.ParseInLocation(domain.LedgerTimeLayout, m.CreatedAt, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("upload %d has malformed created_at %q: %w", m.ID, m.CreatedAt, err)
	}

	var uploadedAt *time.Time
	if m.UploadedAt != nil {
		parsed, err := time.ParseInLocation(domain.LedgerTimeLayout, *m.UploadedAt, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("upload %d has malformed uploaded_at %q: %w", m.ID, *m.UploadedAt, err)
		}
		uploadedAt = &parsed
	}

	return &domain.UploadAttempt{
		ID:         m.ID,
		VideoID:    m.VideoID,
		Service:    service,
		Status:     status,
		Error:      m.Error,
		CreatedAt:  createdAt,
		UploadedAt: uploadedAt,
	}, nil
}
