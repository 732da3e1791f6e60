package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ersinak/upload-dispatcher/internal/domain"
	"github.com/ersinak/upload-dispatcher/internal/observability"
	"github.com/ersinak/upload-dispatcher/internal/platform"
	"github.com/ersinak/upload-dispatcher/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPollInterval = 30 * time.Second

	// missingFileError is the fixed ledger message for a video whose
	// content-addressed file is absent from the upload directory.
	missingFileError = "file missing on disk"
)

// ServiceRegistry resolves which services are currently enabled and builds
// their publish capabilities. Enabled is called once per cycle so credential
// changes apply without a restart.
type ServiceRegistry interface {
	Enabled() []domain.Service
	Publisher(service domain.Service) (platform.Publisher, error)
}

// FileStore locates content-addressed video files on disk.
type FileStore interface {
	Locate(hash string) (path string, ok bool)
}

// Dispatcher is the long-running upload scheduler: poll, select due work,
// publish each due (video, service) pair, record the outcome, sleep, repeat
// forever. Pairs are processed strictly sequentially, which guarantees at
// most one outstanding publish call per service at any time.
type Dispatcher struct {
	videos   repository.VideoRepository
	uploads  repository.UploadRepository
	registry ServiceRegistry
	store    FileStore
	logger   *zap.Logger
	metrics  *observability.Metrics
	interval time.Duration
	policy   domain.RetryPolicy
	window   domain.DueWindow
	now      func() time.Time
}

func NewDispatcher(
	videos repository.VideoRepository,
	uploads repository.UploadRepository,
	registry ServiceRegistry,
	store FileStore,
	interval time.Duration,
	policy domain.RetryPolicy,
	window domain.DueWindow,
	logger *zap.Logger,
) (*Dispatcher, error) {
	if videos == nil {
		return nil, fmt.Errorf("video repository is required")
	}
	if uploads == nil {
		return nil, fmt.Errorf("upload repository is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("service registry is required")
	}
	if store == nil {
		return nil, fmt.Errorf("file store is required")
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if !policy.IsValid() {
		policy = domain.RetryUntilSuccess
	}
	if !window.IsValid() {
		window = domain.WindowOpen
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		videos:   videos,
		uploads:  uploads,
		registry: registry,
		store:    store,
		logger:   logger,
		interval: interval,
		policy:   policy,
		window:   window,
		now:      time.Now,
	}, nil
}

func (d *Dispatcher) SetMetrics(metrics *observability.Metrics) {
	if d == nil {
		return
	}
	d.metrics = metrics
}

// Start runs dispatch cycles until context cancellation. Whatever goes wrong
// inside a cycle is logged and absorbed; the loop always proceeds to the
// next tick and never exits on error.
func (d *Dispatcher) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	d.logger.Info("dispatcher started",
		zap.Duration("interval", d.interval),
		zap.String("policy", d.policy.String()),
		zap.String("window", d.window.String()),
	)

	d.cycle(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.cycle(ctx)
		}
	}
}

func (d *Dispatcher) cycle(parent context.Context) {
	ctx := observability.WithCycleID(parent, uuid.NewString())
	logger := observability.WithContextLogger(d.logger, ctx)

	if err := d.runCycle(ctx); err != nil {
		if parent.Err() != nil {
			return
		}
		d.metrics.IncCycle("error")
		logger.Error("dispatch cycle failed", zap.Error(err))
		return
	}
	d.metrics.IncCycle("ok")
}

func (d *Dispatcher) runCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch cycle panicked: %v", r)
		}
	}()

	logger := observability.WithContextLogger(d.logger, ctx)

	services := d.registry.Enabled()
	d.metrics.SetEnabledServices(len(services))
	if len(services) == 0 {
		// Misconfiguration is not an error: a quiet no-op cycle.
		logger.Debug("no services enabled; skipping cycle")
		return nil
	}

	due, err := d.videos.ListDue(ctx, d.now(), d.window)
	if err != nil {
		return fmt.Errorf("failed to select due videos: %w", err)
	}
	d.metrics.SetDueVideos(len(due))
	logger.Debug("due videos selected",
		zap.Int("videos", len(due)),
		zap.Int("services", len(services)),
	)

	for i := range due {
		if err := d.dispatchVideo(ctx, logger, &due[i], services); err != nil {
			return err
		}
	}

	return nil
}

func (d *Dispatcher) dispatchVideo(ctx context.Context, logger *zap.Logger, video *domain.Video, services []domain.Service) error {
	path, ok := d.store.Locate(video.FileHash)
	if !ok {
		// Record the failure for every service still owed an outcome so
		// the pair does not stay pending forever; no publish call is made.
		for _, svc := range services {
			exhausted, err := d.exhausted(ctx, video.ID, svc)
			if err != nil {
				return err
			}
			if exhausted {
				continue
			}
			if err := d.record(ctx, domain.NewFailedAttempt(video.ID, svc, missingFileError, d.now().UTC())); err != nil {
				return err
			}
			d.metrics.IncUploadFailed(svc.String(), "missing_file")
			logger.Warn("video file missing on disk",
				zap.Int64("videoId", video.ID),
				zap.String("service", svc.String()),
				zap.String("path", path),
			)
		}
		return nil
	}

	for _, svc := range services {
		exhausted, err := d.exhausted(ctx, video.ID, svc)
		if err != nil {
			return err
		}
		if exhausted {
			continue
		}

		publishErr := d.publish(ctx, svc, platform.PublishRequest{
			FilePath: path,
			Caption:  video.CaptionText(),
		})
		if publishErr != nil {
			if err := d.record(ctx, domain.NewFailedAttempt(video.ID, svc, publishErr.Error(), d.now().UTC())); err != nil {
				return err
			}
			d.metrics.IncUploadFailed(svc.String(), "publish_error")
			logger.Warn("failed to publish video",
				zap.Int64("videoId", video.ID),
				zap.String("service", svc.String()),
				zap.Error(publishErr),
			)
			continue
		}

		if err := d.record(ctx, domain.NewSuccessAttempt(video.ID, svc, d.now().UTC())); err != nil {
			return err
		}
		d.metrics.IncUploadSent(svc.String())
		logger.Info("video published",
			zap.Int64("videoId", video.ID),
			zap.String("service", svc.String()),
		)
	}

	return nil
}

// publish shields the loop from the platform client: construction errors,
// returned errors, and panics all come back as a single error whose message
// text goes into the ledger.
func (d *Dispatcher) publish(ctx context.Context, svc domain.Service, req platform.PublishRequest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s publisher panicked: %v", svc, r)
		}
	}()

	publisher, err := d.registry.Publisher(svc)
	if err != nil {
		return err
	}

	start := d.now()
	err = publisher.Publish(ctx, req)
	d.metrics.ObservePublishDuration(svc.String(), d.now().Sub(start))
	return err
}

func (d *Dispatcher) exhausted(ctx context.Context, videoID int64, svc domain.Service) (bool, error) {
	var (
		done bool
		err  error
	)
	switch d.policy {
	case domain.SingleAttempt:
		done, err = d.uploads.HasAnyAttempt(ctx, videoID, svc)
	default:
		done, err = d.uploads.HasSucceeded(ctx, videoID, svc)
	}
	if err != nil {
		return false, fmt.Errorf("failed to query upload ledger: %w", err)
	}
	return done, nil
}

func (d *Dispatcher) record(ctx context.Context, attempt *domain.UploadAttempt) error {
	if err := d.uploads.Record(ctx, attempt); err != nil {
		return fmt.Errorf("failed to record upload outcome: %w", err)
	}
	return nil
}
