package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ersinak/upload-dispatcher/internal/domain"
	"github.com/go-resty/resty/v2"
)

const (
	defaultTikTokBaseURL = "https://open.tiktokapis.com"
	tikTokPublishTimeout = 10 * time.Minute

	tikTokInitPath = "/v2/post/publish/video/init/"
)

type tikTokInitRequest struct {
	PostInfo   tikTokPostInfo   `json:"post_info"`
	SourceInfo tikTokSourceInfo `json:"source_info"`
}

type tikTokPostInfo struct {
	Title string `json:"title"`
}

type tikTokSourceInfo struct {
	Source    string `json:"source"`
	VideoSize int64  `json:"video_size"`
}

type tikTokInitResponse struct {
	Data struct {
		PublishID string `json:"publish_id"`
		UploadURL string `json:"upload_url"`
	} `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// TikTokPublisher posts videos through the content posting API: an init call
// reserves an upload slot, then the bytes go to the returned upload URL.
type TikTokPublisher struct {
	client *resty.Client
	apiKey string
}

func NewTikTokPublisher(apiKey string) (*TikTokPublisher, error) {
	client := resty.New()
	client.SetBaseURL(defaultTikTokBaseURL)
	client.SetTimeout(tikTokPublishTimeout)
	client.SetRetryCount(0)

	return NewTikTokPublisherWithClient(apiKey, client)
}

func NewTikTokPublisherWithClient(apiKey string, client *resty.Client) (*TikTokPublisher, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("missing TIKTOK_API_KEY in environment")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	return &TikTokPublisher{
		client: client,
		apiKey: apiKey,
	}, nil
}

func (p *TikTokPublisher) Service() domain.Service { return domain.ServiceTikTok }

func (p *TikTokPublisher) Publish(ctx context.Context, req PublishRequest) error {
	info, err := os.Stat(req.FilePath)
	if err != nil {
		return &PublishError{
			Service: domain.ServiceTikTok,
			Message: "failed to stat video file",
			Cause:   err,
		}
	}

	var initResp tikTokInitResponse
	response, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(tikTokInitRequest{
			PostInfo: tikTokPostInfo{Title: req.Caption},
			SourceInfo: tikTokSourceInfo{
				Source:    "FILE_UPLOAD",
				VideoSize: info.Size(),
			},
		}).
		SetResult(&initResp).
		Post(tikTokInitPath)
	if err != nil {
		return &PublishError{
			Service: domain.ServiceTikTok,
			Message: "upload init request failed",
			Cause:   err,
		}
	}

	if code := response.StatusCode(); code < http.StatusOK || code >= http.StatusMultipleChoices {
		// Error payloads are not unmarshaled into the result automatically.
		_ = json.Unmarshal(response.Body(), &initResp)
		message := "upload init rejected"
		if msg := strings.TrimSpace(initResp.Error.Message); msg != "" {
			message = fmt.Sprintf("upload init rejected: %s", msg)
		}
		return &PublishError{
			Service:    domain.ServiceTikTok,
			StatusCode: code,
			Message:    message,
		}
	}

	if initResp.Data.UploadURL == "" {
		return &PublishError{
			Service: domain.ServiceTikTok,
			Message: "init response missing upload url",
		}
	}

	file, err := os.Open(req.FilePath)
	if err != nil {
		return &PublishError{
			Service: domain.ServiceTikTok,
			Message: "failed to open video file",
			Cause:   err,
		}
	}
	defer file.Close()

	uploadResponse, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "video/mp4").
		SetHeader("Content-Range", fmt.Sprintf("bytes 0-%d/%d", info.Size()-1, info.Size())).
		SetBody(file).
		Put(initResp.Data.UploadURL)
	if err != nil {
		return &PublishError{
			Service: domain.ServiceTikTok,
			Message: "video upload request failed",
			Cause:   err,
		}
	}

	if code := uploadResponse.StatusCode(); code < http.StatusOK || code >= http.StatusMultipleChoices {
		return &PublishError{
			Service:    domain.ServiceTikTok,
			StatusCode: code,
			Message:    "video upload rejected",
		}
	}

	return nil
}
