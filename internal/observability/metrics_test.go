package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsDispatchCollectors(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()

	metrics.IncUploadSent("TikTok")
	metrics.IncUploadFailed("tiktok", "publish_error")
	metrics.ObservePublishDuration("tiktok", 120*time.Millisecond)
	metrics.IncCycle("ok")
	metrics.SetDueVideos(3)
	metrics.SetEnabledServices(2)

	if got := testutil.ToFloat64(metrics.uploadsSentTotal.WithLabelValues("tiktok")); got != 1 {
		t.Fatalf("uploads_sent_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.uploadsFailedTotal.WithLabelValues("tiktok", "publish_error")); got != 1 {
		t.Fatalf("uploads_failed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.cyclesTotal.WithLabelValues("ok")); got != 1 {
		t.Fatalf("cycles_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.dueVideos); got != 3 {
		t.Fatalf("due_videos = %v, want 3", got)
	}
	if got := testutil.ToFloat64(metrics.enabledServices); got != 2 {
		t.Fatalf("enabled_services = %v, want 2", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	t.Parallel()

	var metrics *Metrics
	metrics.IncUploadSent("tiktok")
	metrics.IncUploadFailed("tiktok", "publish_error")
	metrics.ObservePublishDuration("tiktok", time.Second)
	metrics.IncCycle("error")
	metrics.SetDueVideos(1)
	metrics.SetEnabledServices(1)
}

func TestMetricsHandlerServesRegistry(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	metrics.IncCycle("ok")

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	metrics.Handler().ServeHTTP(recorder, req)

	if recorder.Code != 200 {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if recorder.Body.Len() == 0 {
		t.Fatal("expected metrics payload")
	}
}
