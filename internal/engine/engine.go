package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"freighter/internal/classify"
	"freighter/internal/config"
	"freighter/internal/logging"
	"freighter/internal/retry"
	"freighter/internal/tracker"
	"freighter/internal/transport"
)

// Connectivity is the slice of the network monitor the engine depends on.
type Connectivity interface {
	Online() bool
	Notify(fn func(online bool)) func()
}

// Engine owns upload sessions, admits tasks into concurrent execution up to
// each session's bound, and wires every attempt's lifecycle into the tracker.
//
// One Engine instance serves one logical upload surface. Construct it
// explicitly, inject its collaborators, and call Destroy when done; nothing
// here is global.
type Engine struct {
	cfg        *config.Config
	logger     *slog.Logger
	tracker    *tracker.Tracker
	transport  transport.Transport
	classifier *classify.Classifier
	policy     retry.Policy
	net        Connectivity

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu          sync.Mutex
	sessions    map[string]*session
	files       map[string]transport.Request
	inflight    map[string]*attempt
	attemptSeq  uint64
	retryTimers map[string]*time.Timer
	unsubNet    func()
	destroyed   bool

	wg sync.WaitGroup
}

// attempt is one registered transport attempt. gen distinguishes it from any
// earlier attempt for the same task that is still unwinding after an abort;
// only the attempt whose gen is registered may act on the task's state.
type attempt struct {
	gen    uint64
	cancel context.CancelFunc
}

// Option configures optional Engine behavior.
type Option func(*Engine)

// WithConnectivity wires a network monitor. Without one the engine assumes
// the network is always reachable.
func WithConnectivity(net Connectivity) Option {
	return func(e *Engine) { e.net = net }
}

// WithClassifier wires a category classifier used to fill in missing
// categories at submission time.
func WithClassifier(c *classify.Classifier) Option {
	return func(e *Engine) { e.classifier = c }
}

// New constructs an engine around the injected transport. The tracker is the
// engine's single source of truth for task state; callers observe uploads by
// subscribing to it.
func New(cfg *config.Config, tr *tracker.Tracker, tp transport.Transport, logger *slog.Logger, opts ...Option) *Engine {
	baseCtx, baseCancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "engine"),
		tracker:     tr,
		transport:   tp,
		policy:      retry.NewPolicy(cfg.Engine),
		baseCtx:     baseCtx,
		baseCancel:  baseCancel,
		sessions:    make(map[string]*session),
		files:       make(map[string]transport.Request),
		inflight:    make(map[string]*attempt),
		retryTimers: make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.net != nil {
		e.unsubNet = e.net.Notify(e.onConnectivityChange)
	}
	return e
}

// Tracker returns the tracker backing this engine.
func (e *Engine) Tracker() *tracker.Tracker {
	return e.tracker
}

// Destroy cancels all sessions, stops pending retries, and releases the
// connectivity subscription. Safe to call multiple times. Destroy waits for
// in-flight transport attempts to observe cancellation and return.
func (e *Engine) Destroy() {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.destroyed = true
	unsub := e.unsubNet
	e.unsubNet = nil
	for id := range e.sessions {
		e.cancelSessionLocked(e.sessions[id])
	}
	for id, timer := range e.retryTimers {
		timer.Stop()
		delete(e.retryTimers, id)
	}
	e.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	e.baseCancel()
	e.wg.Wait()
}

func (e *Engine) onConnectivityChange(online bool) {
	if !online {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	// Deferred tasks drain through the same admission path as ordinary
	// submissions, in original order.
	for _, s := range e.sessions {
		e.admitLocked(s)
	}
}

func (e *Engine) online() bool {
	if e.net == nil {
		return true
	}
	return e.net.Online()
}
