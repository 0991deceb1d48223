package machine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"sfxd/logger"
)

// StreamStats reports the state of the sound pool
type StreamStats interface {
	Active() int
	Loaded() int
}

// ManagerStats reports the state of the sound manager. Len is the number of
// cached resources.
type ManagerStats interface {
	Len() int
	Done() <-chan struct{}
}

// StatsMonitor periodically logs pool and cache occupancy
type StatsMonitor struct {
	logger      *slog.Logger
	streams     StreamStats
	manager     ManagerStats
	interval    time.Duration
	wg          *sync.WaitGroup
	stopOnce    sync.Once
	stopChannel chan struct{}
}

// NewStatsMonitor creates a new StatsMonitor instance
func NewStatsMonitor(streams StreamStats, manager ManagerStats, interval time.Duration, wg *sync.WaitGroup) *StatsMonitor {
	return &StatsMonitor{
		logger:      logger.WithComponent("stats-monitor"),
		streams:     streams,
		manager:     manager,
		interval:    interval,
		wg:          wg,
		stopChannel: make(chan struct{}),
	}
}

// Start begins monitoring until ctx is done, the manager stops or Stop is called
func (s *StatsMonitor) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.logger.Info("Starting stats monitoring", slog.Duration("interval", s.interval))

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.report()
			case <-ctx.Done():
				s.logger.Info("Stats monitoring stopped")
				return
			case <-s.manager.Done():
				s.logger.Info("Sound manager stopped, stopping stats monitoring")
				return
			case <-s.stopChannel:
				s.logger.Info("Stats monitoring stopped via stop channel")
				return
			}
		}
	}()
}

// Stop stops monitoring
func (s *StatsMonitor) Stop() {
	s.stopOnce.Do(func() { close(s.stopChannel) })
}

func (s *StatsMonitor) report() {
	s.logger.Debug("Sound stats",
		slog.Int("active_streams", s.streams.Active()),
		slog.Int("loaded_samples", s.streams.Loaded()),
		slog.Int("cached_resources", s.manager.Len()))
}
