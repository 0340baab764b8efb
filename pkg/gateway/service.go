package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"photoscribe/pkg/bus"
	"photoscribe/pkg/channel"
	"photoscribe/pkg/config"
	"photoscribe/pkg/dispatch"
	"photoscribe/pkg/media"
	"photoscribe/pkg/vision"
)

const healthCheckTimeout = 15 * time.Second

// HealthChecker probes the inference endpoint.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Stats counts handled events since the service started.
type Stats struct {
	Commands       int       `json:"commands"`
	Other          int       `json:"other"`
	Photos         int       `json:"photos"`
	Described      int       `json:"described"`
	DescribeFailed int       `json:"describe_failed"`
	StageFailed    int       `json:"stage_failed"`
	LastError      string    `json:"last_error,omitempty"`
	LastErrorAt    time.Time `json:"last_error_at,omitempty"`
}

// Service runs one chat adapter against the photo dispatcher.
type Service struct {
	adapter channel.Adapter
	handler channel.Handler
	events  *bus.Bus
	health  HealthChecker
	log     *slog.Logger

	mu        sync.Mutex
	startedAt time.Time
	stats     Stats
}

// NewService wires the inference client, stager and dispatcher around adapter.
func NewService(cfg *config.Config, adapter channel.Adapter, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if adapter == nil {
		return nil, errors.New("channel adapter is required")
	}
	if log == nil {
		log = slog.Default()
	}

	client, err := vision.New(cfg.Inference, log)
	if err != nil {
		return nil, fmt.Errorf("initialize inference client: %w", err)
	}

	stager, err := media.NewStager(cfg.Staging.Dir, adapter, log)
	if err != nil {
		return nil, fmt.Errorf("initialize stager: %w", err)
	}
	if removed, err := stager.Sweep(); err != nil {
		log.Warn("Failed to sweep staging directory", "dir", stager.Dir(), "error", err)
	} else if removed > 0 {
		log.Info("Removed leftover staged photos", "dir", stager.Dir(), "count", removed)
	}

	events := bus.New()
	dispatcher, err := dispatch.New(adapter, stager, client,
		dispatch.WithLogger(log),
		dispatch.WithEvents(events),
	)
	if err != nil {
		return nil, fmt.Errorf("initialize dispatcher: %w", err)
	}

	return &Service{
		adapter: adapter,
		handler: dispatcher.Handle,
		events:  events,
		health:  client,
		log:     log.With("component", "gateway.service"),
	}, nil
}

// Run blocks until ctx is cancelled or the adapter fails.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	s.checkHealth(ctx)

	// The subscription outlives ctx so events from the last in-flight photo
	// are still counted; it ends with the explicit unsubscribe below.
	eventsCh, unsubscribe := s.events.Subscribe(context.WithoutCancel(ctx), 0)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for event := range eventsCh {
			s.record(event)
		}
	}()

	err := s.adapter.Run(ctx, s.handler)

	unsubscribe()
	<-collected
	s.events.Close()

	stats := s.Stats()
	s.log.Info("Gateway stopped",
		"uptime", time.Since(s.startedAt).Round(time.Second),
		"photos", stats.Photos,
		"described", stats.Described,
		"describe_failed", stats.DescribeFailed,
		"stage_failed", stats.StageFailed,
	)

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run %s channel: %w", s.adapter.Name(), err)
	}
	return nil
}

// Stats returns a snapshot of the counters.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// checkHealth logs the endpoint state; it never fails startup.
func (s *Service) checkHealth(ctx context.Context) {
	if s.health == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := s.health.Health(ctx); err != nil {
		s.log.Warn("Inference endpoint health check failed", "error", err)
		return
	}
	s.log.Info("Inference endpoint reachable")
}

func (s *Service) record(event bus.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.Type {
	case bus.EventCommandHandled:
		s.stats.Commands++
	case bus.EventOtherHandled:
		s.stats.Other++
	case bus.EventPhotoReceived:
		s.stats.Photos++
	case bus.EventDescribeCompleted:
		s.stats.Described++
	case bus.EventDescribeFailed:
		s.stats.DescribeFailed++
	case bus.EventStageFailed:
		s.stats.StageFailed++
	}

	if event.Error != "" {
		s.stats.LastError = event.Error
		s.stats.LastErrorAt = event.At
	}
}
