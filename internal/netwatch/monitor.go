package netwatch

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"freighter/internal/config"
	"freighter/internal/logging"
)

// Prober reports whether the network currently looks reachable.
type Prober func(ctx context.Context) bool

// Monitor polls a connectivity probe and notifies subscribers on
// online/offline transitions. While offline the engine defers admission
// instead of burning retry budget against a dead network.
type Monitor struct {
	logger   *slog.Logger
	probe    Prober
	interval time.Duration

	mu      sync.Mutex
	online  bool
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	nextSubID   int
	subscribers map[int]func(online bool)
}

// New builds a monitor that probes the configured URL over HTTP.
func New(cfg *config.Config, logger *slog.Logger) *Monitor {
	timeout := time.Duration(cfg.Network.ProbeTimeoutSeconds) * time.Second
	client := &http.Client{Timeout: timeout}
	probeURL := cfg.Network.ProbeURL
	probe := func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, probeURL, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode < 500
	}
	return NewWithProber(probe, time.Duration(cfg.Network.ProbeIntervalSeconds)*time.Second, logger)
}

// NewWithProber builds a monitor around a custom probe (used in tests).
// The monitor starts out online; the first probe corrects that if needed.
func NewWithProber(probe Prober, interval time.Duration, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Monitor{
		logger:      logging.NewComponentLogger(logger, "netwatch"),
		probe:       probe,
		interval:    interval,
		online:      true,
		subscribers: make(map[int]func(bool)),
	}
}

// Start begins the probe loop. Safe to call once; subsequent calls are no-ops.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
}

// Stop terminates the probe loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Online reports the last observed connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Notify registers a callback invoked on every connectivity transition. The
// returned unsubscribe handle is idempotent.
func (m *Monitor) Notify(fn func(online bool)) func() {
	if fn == nil {
		return func() {}
	}
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, id)
			m.mu.Unlock()
		})
	}
}

// SetOnline forces a connectivity state, notifying subscribers on change.
// The probe loop uses it; tests may drive it directly.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]func(bool), 0, len(m.subscribers))
	for id := 0; id < m.nextSubID; id++ {
		if fn, ok := m.subscribers[id]; ok {
			subs = append(subs, fn)
		}
	}
	m.mu.Unlock()

	if online {
		m.logger.Info("connectivity restored")
	} else {
		m.logger.Warn("connectivity lost; deferring new transfers")
	}
	for _, fn := range subs {
		fn(online)
	}
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.SetOnline(m.probe(ctx))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SetOnline(m.probe(ctx))
		}
	}
}
