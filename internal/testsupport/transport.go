package testsupport

import (
	"context"
	"sync"

	"freighter/internal/transport"
)

// FakeTransport is a scriptable transport for engine and tracker tests.
// Attempts resolve per filename: scripted errors are consumed in order and
// any attempt beyond the script succeeds. Hold gates attempts so tests can
// observe concurrency before letting transfers finish.
type FakeTransport struct {
	mu      sync.Mutex
	scripts map[string][]error
	steps   map[string][]int64
	calls   map[string]int
	gate    chan struct{}

	// Started receives the filename of every attempt as it begins.
	Started chan string
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		scripts: make(map[string][]error),
		steps:   make(map[string][]int64),
		calls:   make(map[string]int),
		Started: make(chan string, 64),
	}
}

// Script queues per-attempt results for filename. A nil entry succeeds.
func (f *FakeTransport) Script(filename string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[filename] = append(f.scripts[filename], errs...)
}

// StepBytes sets the cumulative progress samples reported on each attempt.
func (f *FakeTransport) StepBytes(filename string, steps ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps[filename] = steps
}

// Hold makes subsequent attempts block until Release.
func (f *FakeTransport) Hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
}

// Release unblocks n held attempts; n < 0 releases all current and future
// attempts.
func (f *FakeTransport) Release(n int) {
	f.mu.Lock()
	gate := f.gate
	if n < 0 {
		f.gate = nil
	}
	f.mu.Unlock()
	if gate == nil {
		return
	}
	if n < 0 {
		close(gate)
		return
	}
	for i := 0; i < n; i++ {
		gate <- struct{}{}
	}
}

// Calls reports how many attempts have run for filename.
func (f *FakeTransport) Calls(filename string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[filename]
}

func (f *FakeTransport) Transfer(ctx context.Context, req transport.Request, onProgress transport.ProgressFunc) (*transport.Descriptor, error) {
	f.mu.Lock()
	f.calls[req.Filename]++
	attempt := f.calls[req.Filename]
	gate := f.gate
	steps := f.steps[req.Filename]
	f.mu.Unlock()

	select {
	case f.Started <- req.Filename:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if onProgress != nil {
		for _, step := range steps {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			onProgress(step)
		}
	}

	f.mu.Lock()
	var err error
	if script := f.scripts[req.Filename]; attempt <= len(script) {
		err = script[attempt-1]
	}
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if onProgress != nil {
		onProgress(req.ByteSize)
	}
	return &transport.Descriptor{Key: req.Filename}, nil
}
