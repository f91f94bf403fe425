package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/quill/internal/web/store"
)

// Sweeper is anything holding expiring in-memory state, such as the OTP
// challenge cache.
type Sweeper interface {
	Sweep() int
}

// Housekeeper periodically deletes expired session rows and sweeps
// in-memory caches so neither grows without bound.
type Housekeeper struct {
	Store    store.Store
	Sweepers []Sweeper
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeeper creates a housekeeper. If interval is 0 or negative it
// defaults to 10 minutes.
func NewHousekeeper(st store.Store, logger *slog.Logger, interval time.Duration, sweepers ...Sweeper) *Housekeeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	return &Housekeeper{
		Store:    st,
		Sweepers: sweepers,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to shut it down.
func (h *Housekeeper) Start() {
	go h.run()
	h.Logger.Info("housekeeping started", "interval", h.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (h *Housekeeper) Stop() {
	close(h.stopCh)
	<-h.doneCh
	h.Logger.Info("housekeeping stopped")
}

func (h *Housekeeper) run() {
	defer close(h.doneCh)

	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()

	h.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			h.Cleanup(context.Background())
		case <-h.stopCh:
			return
		}
	}
}

// Cleanup runs one pass. Each step is independent; a failure is logged and
// the rest still run.
func (h *Housekeeper) Cleanup(ctx context.Context) {
	deleted, err := h.Store.Sessions().DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		h.Logger.Error("failed to delete expired sessions", "error", err)
	}

	swept := 0
	for _, s := range h.Sweepers {
		swept += s.Sweep()
	}

	if deleted > 0 || swept > 0 {
		h.Logger.Info("housekeeping cleanup completed",
			"sessions_deleted", deleted,
			"challenges_swept", swept,
		)
	}
}
