package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/ersinak/upload-dispatcher/internal/domain"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	youtubeUploadURL  = "https://www.googleapis.com/upload/youtube/v3/videos?uploadType=multipart&part=snippet,status"
	youtubeCategoryID = "22"

	// Caption text past this length moves to the description.
	youtubeMaxTitleLen = 100
)

var youtubeScopes = []string{
	"https://www.googleapis.com/auth/youtube.upload",
}

type youtubeSnippet struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CategoryID  string `json:"categoryId"`
}

type youtubeStatus struct {
	PrivacyStatus string `json:"privacyStatus"`
}

type youtubeVideoMetadata struct {
	Snippet youtubeSnippet `json:"snippet"`
	Status  youtubeStatus  `json:"status"`
}

type youtubeUploadResponse struct {
	ID string `json:"id"`
}

// YouTubePublisher uploads through the Data API using an oauth2 token that
// was obtained interactively once and is persisted in the session store;
// refreshes happen automatically and are persisted best-effort.
type YouTubePublisher struct {
	config   *oauth2.Config
	sessions *SessionStore
	logger   *zap.Logger
}

func NewYouTubePublisher(clientID, clientSecret string, sessions *SessionStore, logger *zap.Logger) (*YouTubePublisher, error) {
	if strings.TrimSpace(clientID) == "" || strings.TrimSpace(clientSecret) == "" {
		return nil, fmt.Errorf("missing YOUTUBE_CLIENT_ID/YOUTUBE_CLIENT_SECRET in environment")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &YouTubePublisher{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       youtubeScopes,
		},
		sessions: sessions,
		logger:   logger,
	}, nil
}

func (p *YouTubePublisher) Service() domain.Service { return domain.ServiceYouTube }

func (p *YouTubePublisher) Publish(ctx context.Context, req PublishRequest) error {
	var token oauth2.Token
	loaded, err := p.sessions.Load(domain.ServiceYouTube, &token)
	if err != nil {
		return &PublishError{
			Service: domain.ServiceYouTube,
			Message: "failed to load youtube token",
			Cause:   err,
		}
	}
	if !loaded || token.RefreshToken == "" {
		return &PublishError{
			Service: domain.ServiceYouTube,
			Message: "no persisted youtube token; authorize the account first",
		}
	}

	file, err := os.Open(req.FilePath)
	if err != nil {
		return &PublishError{
			Service: domain.ServiceYouTube,
			Message: "failed to open video file",
			Cause:   err,
		}
	}
	defer file.Close()

	metadata := youtubeVideoMetadata{
		Snippet: youtubeSnippet{
			Title:       youtubeTitle(req.Caption),
			Description: req.Caption,
			CategoryID:  youtubeCategoryID,
		},
		Status: youtubeStatus{PrivacyStatus: "public"},
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return &PublishError{
			Service: domain.ServiceYouTube,
			Message: "failed to encode video metadata",
			Cause:   err,
		}
	}

	tokenSource := p.config.TokenSource(ctx, &token)
	client := resty.NewWithClient(oauth2.NewClient(ctx, tokenSource))

	var uploadResp youtubeUploadResponse
	response, err := client.R().
		SetContext(ctx).
		SetMultipartField("metadata", "", "application/json; charset=UTF-8", bytes.NewReader(metadataJSON)).
		SetMultipartField("video", "video.mp4", "video/mp4", file).
		SetResult(&uploadResp).
		Post(youtubeUploadURL)
	if err != nil {
		return &PublishError{
			Service: domain.ServiceYouTube,
			Message: "upload request failed",
			Cause:   err,
		}
	}

	if code := response.StatusCode(); code < http.StatusOK || code >= http.StatusMultipleChoices {
		return &PublishError{
			Service:    domain.ServiceYouTube,
			StatusCode: code,
			Message:    "upload rejected",
		}
	}

	if uploadResp.ID == "" {
		return &PublishError{
			Service: domain.ServiceYouTube,
			Message: "upload response missing video id",
		}
	}

	// Persist the possibly-refreshed token; best-effort.
	if refreshed, err := tokenSource.Token(); err == nil && refreshed.AccessToken != token.AccessToken {
		if err := p.sessions.Save(domain.ServiceYouTube, refreshed); err != nil {
			p.logger.Warn("failed to persist youtube token", zap.Error(err))
		}
	}

	return nil
}

func youtubeTitle(caption string) string {
	title := strings.TrimSpace(caption)
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = strings.TrimSpace(title[:idx])
	}
	if title == "" {
		return "Scheduled upload"
	}
	if len(title) > youtubeMaxTitleLen {
		title = title[:youtubeMaxTitleLen]
	}
	return title
}
