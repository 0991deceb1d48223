package machine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sfxd/assets"
	"sfxd/config"
	"sfxd/console"
	"sfxd/logger"
	"sfxd/music"
	"sfxd/playback"
	"sfxd/pool"
	"sfxd/sound"
)

// stopTimeout bounds how long Stop waits for the dispatcher to exit
const stopTimeout = 5 * time.Second

// output is what the machine needs from a playback output
type output interface {
	playback.Output
	Pause()
	Resume()
}

// Machine wires the audio output, the sound pool, the sound manager and the
// music player together.
type Machine struct {
	config   *config.Config
	logger   *slog.Logger
	output   output
	manual   *playback.Manual
	catalog  *assets.Catalog
	pool     *pool.SoundPool
	sounds   *sound.Manager
	music    *music.Player
	registry *prometheus.Registry
	server   *http.Server
	monitor  *StatsMonitor

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	errorChan chan error
}

// New creates a new Machine instance
func New(cfg *config.Config) *Machine {
	ctx, cancel := context.WithCancel(context.Background())

	return &Machine{
		config:    cfg,
		logger:    logger.WithComponent("machine"),
		ctx:       ctx,
		cancel:    cancel,
		errorChan: make(chan error, 10),
	}
}

// Initialize opens the audio output and builds every component. The output
// is closed again if a later step fails.
func (m *Machine) Initialize() error {
	m.logger.Info("Initializing machine...")

	rate := beep.SampleRate(m.config.Audio.SampleRate)
	switch m.config.Audio.Output {
	case config.OutputNone:
		m.manual = playback.NewManual(rate)
		m.output = m.manual
	default:
		speaker, err := playback.NewSpeaker(rate, m.config.Audio.Buffer)
		if err != nil {
			return fmt.Errorf("failed to open audio output: %w", err)
		}
		m.output = speaker
	}

	if err := m.build(); err != nil {
		if cerr := m.output.Close(); cerr != nil {
			m.logger.Warn("Failed to close audio output", slog.Any("error", cerr))
		}
		return err
	}

	m.logger.Info("Machine initialized successfully",
		slog.String("output", m.config.Audio.Output),
		slog.Int("sample_rate", m.config.Audio.SampleRate),
		slog.Int("max_streams", m.config.Audio.MaxStreams),
		slog.Int("resources", len(m.catalog.IDs())))
	return nil
}

// build creates everything that sits on top of the output
func (m *Machine) build() error {
	ids, err := m.config.Sounds.IDs()
	if err != nil {
		return err
	}
	files := make(map[sound.ResourceID]string, len(ids))
	for id, name := range ids {
		files[sound.ResourceID(id)] = name
	}
	m.catalog = assets.NewCatalog(os.DirFS(m.config.Sounds.Dir), files)

	m.pool, err = pool.New(m.output, m.catalog, m.config.Audio.MaxStreams)
	if err != nil {
		return fmt.Errorf("failed to create sound pool: %w", err)
	}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := sound.NewMetrics(m.registry)
	if err != nil {
		return err
	}

	m.sounds = sound.New(m.pool, sound.WithMetrics(metrics))
	m.music = music.New(m.output, m.catalog)
	m.music.SetVolume(m.config.Music.Volume)
	m.monitor = NewStatsMonitor(m.pool, m.sounds, m.config.Metrics.StatsInterval, &m.wg)
	return nil
}

// Start preloads sounds and starts the background services
func (m *Machine) Start() error {
	m.logger.Info("Starting machine operations...")

	if m.manual != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			_ = m.manual.Run(m.ctx, m.config.Audio.Buffer)
		}()
	}

	if m.config.Sounds.Preload {
		for _, id := range m.catalog.IDs() {
			m.sounds.Load(id)
		}
	}

	if addr := m.config.Metrics.Listen; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
		m.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.logger.Info("Serving metrics", slog.String("addr", addr))
			if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				m.logger.Error("Metrics server failed", slog.Any("error", err))
				select {
				case m.errorChan <- err:
				default:
				}
			}
		}()
	}

	m.monitor.Start(m.ctx)

	m.logger.Info("Machine started successfully")
	return nil
}

// Stop cancels the sound manager and shuts everything down
func (m *Machine) Stop() error {
	m.logger.Info("Stopping machine...")

	m.sounds.Cancel()
	select {
	case <-m.sounds.Done():
	case <-time.After(stopTimeout):
		m.logger.Warn("Sound manager did not stop in time")
	}

	if err := m.music.Close(); err != nil {
		m.logger.Warn("Failed to close music player", slog.Any("error", err))
	}

	if m.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := m.server.Shutdown(ctx); err != nil {
			m.logger.Warn("Failed to stop metrics server", slog.Any("error", err))
		}
	}

	// Cancel context to stop all operations
	m.monitor.Stop()
	m.cancel()
	m.wg.Wait()

	if err := m.output.Close(); err != nil && !errors.Is(err, playback.ErrClosed) {
		return fmt.Errorf("failed to close audio output: %w", err)
	}

	m.logger.Info("Machine stopped")
	return nil
}

// Console returns the host the command console drives
func (m *Machine) Console() console.Host {
	return console.Host{
		Effects: m.sounds,
		Music:   m.music,
		Output:  m.output,
	}
}

// Done is closed once the sound manager has been cancelled
func (m *Machine) Done() <-chan struct{} {
	return m.sounds.Done()
}

// Error returns the error channel for monitoring errors
func (m *Machine) Error() <-chan error {
	return m.errorChan
}
