package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Evictor is the part of the session hub the reaper needs.
type Evictor interface {
	EvictFinished(retention time.Duration) []string
}

// SessionReaper periodically drops finished sessions from memory
type SessionReaper struct {
	evictor Evictor
	config  *ReaperConfig
	cron    *cron.Cron
	logger  *zap.Logger
}

// ReaperConfig contains configuration for the reaper job
type ReaperConfig struct {
	Schedule  string        // Cron schedule (e.g., "@every 1m")
	Retention time.Duration // How long a Done session stays around for late feedback
	Enabled   bool
}

func NewSessionReaper(evictor Evictor, config *ReaperConfig, logger *zap.Logger) *SessionReaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionReaper{
		evictor: evictor,
		config:  config,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start registers the schedule and starts the cron runner.
func (r *SessionReaper) Start() error {
	if !r.config.Enabled {
		r.logger.Info("Session reaper is disabled, skipping scheduler")
		return nil
	}

	r.logger.Info("Starting session reaper", zap.String("schedule", r.config.Schedule), zap.Duration("retention", r.config.Retention))

	if _, err := r.cron.AddFunc(r.config.Schedule, func() { r.RunOnce() }); err != nil {
		return fmt.Errorf("failed to schedule session reaper: %w", err)
	}

	r.cron.Start()
	return nil
}

// Stop waits for a running sweep to finish.
func (r *SessionReaper) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
		r.logger.Info("Session reaper stopped")
	}
}

// RunOnce performs a single sweep and returns the evicted session ids.
func (r *SessionReaper) RunOnce() []string {
	evicted := r.evictor.EvictFinished(r.config.Retention)
	if len(evicted) > 0 {
		r.logger.Info("Evicted finished sessions", zap.Int("count", len(evicted)), zap.Strings("session_ids", evicted))
	}
	return evicted
}
