package api

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Cleaner periodically removes uploads and outputs older than MaxAge.
type Cleaner struct {
	svc      Service
	maxAge   time.Duration
	interval time.Duration
}

// NewCleaner creates a cleanup worker. A non-positive interval defaults to
// one hour.
func NewCleaner(svc Service, maxAge, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Cleaner{svc: svc, maxAge: maxAge, interval: interval}
}

// Start runs the worker in a goroutine until ctx is done.
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Cleaner) run(ctx context.Context) {
	if c.maxAge <= 0 {
		log.Info().Msg("file cleanup disabled")
		return
	}
	log.Info().Dur("interval", c.interval).Dur("max_age", c.maxAge).Msg("cleanup worker started")

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.cleanup()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("cleanup worker stopped")
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *Cleaner) cleanup() {
	n, err := c.svc.Cleanup(c.maxAge)
	if err != nil {
		log.Warn().Err(err).Int("removed", n).Msg("cleanup cycle failed")
		return
	}
	log.Debug().Int("removed", n).Msg("cleanup cycle done")
}
