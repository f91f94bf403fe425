package service

import (
	"log/slog"
	"time"

	"github.com/aussiebroadwan/quill/internal/devapi/store"
)

// HousekeepingService periodically drops expired one-time codes and
// refresh-token revocations that no longer matter.
type HousekeepingService struct {
	Store    *store.Memory
	Codes    *Codes
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService defaults a non-positive interval to one minute.
func NewHousekeepingService(st *store.Memory, codes *Codes, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &HousekeepingService{
		Store:    st,
		Codes:    codes,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until the worker has exited.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Cleanup(time.Now())
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) Cleanup(now time.Time) {
	codes := s.Codes.Sweep()
	revoked := s.Store.PurgeRevoked(now)
	s.Logger.Debug("housekeeping cleanup completed", "codes", codes, "revocations", revoked)
}
