package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
)

func TestTikTokPublisherPublishSuccess(t *testing.T) {
	t.Parallel()

	var gotInit tikTokInitRequest
	uploadedBytes := 0

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case tikTokInitPath:
			if got := r.Header.Get("Authorization"); got != "Bearer key-123" {
				t.Errorf("authorization = %q, want Bearer key-123", got)
			}
			if err := json.NewDecoder(r.Body).Decode(&gotInit); err != nil {
				t.Fatalf("failed to decode init body: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = fmt.Fprintf(w, `{"data":{"publish_id":"pub-1","upload_url":"%s/upload/pub-1"}}`, server.URL)
		case "/upload/pub-1":
			if r.Method != http.MethodPut {
				t.Errorf("method = %s, want PUT", r.Method)
			}
			body, err := io.ReadAll(r.Body)
			if err != nil {
				t.Fatalf("failed to read upload body: %v", err)
			}
			uploadedBytes = len(body)
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := resty.New().SetBaseURL(server.URL)
	publisher, err := NewTikTokPublisherWithClient("key-123", client)
	if err != nil {
		t.Fatalf("NewTikTokPublisherWithClient() error = %v", err)
	}

	path := writeTempVideo(t)
	err = publisher.Publish(context.Background(), PublishRequest{FilePath: path, Caption: "my caption"})
	if err != nil {
		t.Fatalf("Publish() unexpected error: %v", err)
	}

	if gotInit.PostInfo.Title != "my caption" {
		t.Fatalf("init title = %q, want %q", gotInit.PostInfo.Title, "my caption")
	}
	if gotInit.SourceInfo.Source != "FILE_UPLOAD" {
		t.Fatalf("init source = %q, want FILE_UPLOAD", gotInit.SourceInfo.Source)
	}
	if uploadedBytes != len("video-bytes") {
		t.Fatalf("uploaded bytes = %d, want %d", uploadedBytes, len("video-bytes"))
	}
}

func TestTikTokPublisherInitRejected(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":"rate_limit_exceeded","message":"spam risk too high"}}`))
	}))
	defer server.Close()

	client := resty.New().SetBaseURL(server.URL)
	publisher, err := NewTikTokPublisherWithClient("key-123", client)
	if err != nil {
		t.Fatalf("NewTikTokPublisherWithClient() error = %v", err)
	}

	err = publisher.Publish(context.Background(), PublishRequest{FilePath: writeTempVideo(t)})

	var publishErr *PublishError
	if !errors.As(err, &publishErr) {
		t.Fatalf("error type = %T, want *PublishError", err)
	}
	if publishErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("StatusCode = %d, want %d", publishErr.StatusCode, http.StatusTooManyRequests)
	}
}

func TestTikTokPublisherMissingFile(t *testing.T) {
	t.Parallel()

	publisher, err := NewTikTokPublisher("key-123")
	if err != nil {
		t.Fatalf("NewTikTokPublisher() error = %v", err)
	}

	err = publisher.Publish(context.Background(), PublishRequest{FilePath: "/nonexistent/video"})

	var publishErr *PublishError
	if !errors.As(err, &publishErr) {
		t.Fatalf("error type = %T, want *PublishError", err)
	}
}

func TestNewTikTokPublisherMissingKey(t *testing.T) {
	t.Parallel()

	if _, err := NewTikTokPublisher(" "); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
