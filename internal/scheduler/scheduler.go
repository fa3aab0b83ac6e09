package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-proxy/internal/weather"
)

const probeTimeout = 30 * time.Second

// Prober is the part of weather.Service the scheduler drives.
type Prober interface {
	Probe(ctx context.Context) weather.ProbeResult
}

// Scheduler periodically probes the weather provider.
type Scheduler struct {
	scheduler *gocron.Scheduler
	prober    Prober
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler. A non-positive interval disables probing.
func New(interval time.Duration, prober Prober, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		prober:    prober,
		interval:  interval,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start schedules the probe job and starts the underlying scheduler.
// The first probe runs immediately.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("probe interval not set; provider probing disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(s.runProbe)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("provider probing scheduled", "interval", s.interval.String())
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) runProbe() {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	res := s.prober.Probe(ctx)
	s.logger.Debug("probe job completed", "success", res.Success, "latency", res.Latency)
}
