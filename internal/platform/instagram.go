package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ersinak/upload-dispatcher/internal/domain"
	"github.com/ersinak/upload-dispatcher/internal/storage"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultInstagramBaseURL = "https://i.instagram.com"
	instagramPublishTimeout = 10 * time.Minute

	instagramLoginPath = "/api/v1/accounts/login/"
	instagramClipPath  = "/api/v1/clips/upload/"
)

// instagramSession is the state persisted between runs to avoid a fresh
// login (and its challenge flows) on every publish.
type instagramSession struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	CSRFToken string `json:"csrf_token"`
}

type instagramLoginResponse struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	CSRFToken string `json:"csrf_token"`
	Message   string `json:"message"`
}

// InstagramPublisher posts videos as reels through the mobile API.
type InstagramPublisher struct {
	client   *resty.Client
	username string
	password string
	sessions *SessionStore
	logger   *zap.Logger
}

func NewInstagramPublisher(username, password string, sessions *SessionStore, logger *zap.Logger) (*InstagramPublisher, error) {
	client := resty.New()
	client.SetBaseURL(defaultInstagramBaseURL)
	client.SetTimeout(instagramPublishTimeout)
	client.SetRetryCount(0)

	return NewInstagramPublisherWithClient(username, password, sessions, client, logger)
}

func NewInstagramPublisherWithClient(username, password string, sessions *SessionStore, client *resty.Client, logger *zap.Logger) (*InstagramPublisher, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, fmt.Errorf("missing INSTAGRAM_USERNAME/INSTAGRAM_PASSWORD in environment")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &InstagramPublisher{
		client:   client,
		username: username,
		password: password,
		sessions: sessions,
		logger:   logger,
	}, nil
}

func (p *InstagramPublisher) Service() domain.Service { return domain.ServiceInstagram }

func (p *InstagramPublisher) Publish(ctx context.Context, req PublishRequest) error {
	session, fresh, err := p.acquireSession(ctx)
	if err != nil {
		return err
	}

	// The clip endpoint rejects extensionless filenames, so the
	// content-addressed file is presented under an .mp4 alias.
	path, err := storage.EnsureExt(req.FilePath, "mp4")
	if err != nil {
		return &PublishError{
			Service: domain.ServiceInstagram,
			Message: "failed to stage video file",
			Cause:   err,
		}
	}

	response, err := p.client.R().
		SetContext(ctx).
		SetHeader("X-CSRFToken", session.CSRFToken).
		SetCookie(&http.Cookie{Name: "sessionid", Value: session.SessionID}).
		SetFile("video", path).
		SetFormData(map[string]string{
			"caption":   req.Caption,
			"upload_id": strconv.FormatInt(time.Now().UnixMilli(), 10),
		}).
		Post(instagramClipPath)
	if err != nil {
		return &PublishError{
			Service: domain.ServiceInstagram,
			Message: "clip upload request failed",
			Cause:   err,
		}
	}

	if code := response.StatusCode(); code < http.StatusOK || code >= http.StatusMultipleChoices {
		return &PublishError{
			Service:    domain.ServiceInstagram,
			StatusCode: code,
			Message:    "clip upload rejected",
		}
	}

	if fresh && p.sessions != nil {
		// Best-effort: a failed save must not fail the publish.
		if err := p.sessions.Save(domain.ServiceInstagram, session); err != nil {
			p.logger.Warn("failed to persist instagram session", zap.Error(err))
		}
	}

	return nil
}

// acquireSession loads the persisted session if one exists and logs in
// otherwise. The second return value reports whether the session is fresh
// and should be persisted after use.
func (p *InstagramPublisher) acquireSession(ctx context.Context) (*instagramSession, bool, error) {
	if p.sessions != nil {
		var session instagramSession
		loaded, err := p.sessions.Load(domain.ServiceInstagram, &session)
		if err != nil {
			// A corrupt session file falls back to a fresh login.
			p.logger.Warn("failed to load instagram session", zap.Error(err))
		} else if loaded && session.SessionID != "" {
			return &session, false, nil
		}
	}

	return p.login(ctx)
}

func (p *InstagramPublisher) login(ctx context.Context) (*instagramSession, bool, error) {
	var loginResp instagramLoginResponse
	response, err := p.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"username": p.username,
			"password": p.password,
		}).
		SetResult(&loginResp).
		Post(instagramLoginPath)
	if err != nil {
		return nil, false, &PublishError{
			Service: domain.ServiceInstagram,
			Message: "login request failed",
			Cause:   err,
		}
	}

	if code := response.StatusCode(); code < http.StatusOK || code >= http.StatusMultipleChoices {
		// Error payloads are not unmarshaled into the result automatically.
		_ = json.Unmarshal(response.Body(), &loginResp)
		message := "login rejected"
		if msg := strings.TrimSpace(loginResp.Message); msg != "" {
			message = fmt.Sprintf("login rejected: %s", msg)
		}
		return nil, false, &PublishError{
			Service:    domain.ServiceInstagram,
			StatusCode: code,
			Message:    message,
		}
	}

	if loginResp.SessionID == "" {
		return nil, false, &PublishError{
			Service: domain.ServiceInstagram,
			Message: "login response missing session id",
		}
	}

	return &instagramSession{
		UserID:    loginResp.UserID,
		SessionID: loginResp.SessionID,
		CSRFToken: loginResp.CSRFToken,
	}, true, nil
}
