package testsupport

import (
	"context"
	"sync"

	"heicbatch/internal/convert"
)

// FakePrimitive is a convert.Primitive that records concurrency and can hold
// conversions until the test releases them.
type FakePrimitive struct {
	mu            sync.Mutex
	gate          chan struct{}
	started       chan string
	failures      map[string]error
	ignoreContext bool
	inFlight      int
	peak          int
	calls         int
	requests      []convert.Request
}

// NewFakePrimitive returns a primitive that converts immediately.
func NewFakePrimitive() *FakePrimitive {
	return &FakePrimitive{
		started:  make(chan string, 1024),
		failures: make(map[string]error),
	}
}

// Gated makes every conversion wait for Release or ReleaseAll.
func (f *FakePrimitive) Gated() *FakePrimitive {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{}, 1024)
	return f
}

// IgnoringContext keeps gated conversions waiting even after their context ends,
// simulating a decoder that cannot be interrupted.
func (f *FakePrimitive) IgnoringContext() *FakePrimitive {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ignoreContext = true
	return f
}

// FailOn makes conversions of name return err.
func (f *FakePrimitive) FailOn(name string, err error) *FakePrimitive {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[name] = err
	return f
}

// Release lets n gated conversions finish.
func (f *FakePrimitive) Release(n int) {
	for i := 0; i < n; i++ {
		f.gate <- struct{}{}
	}
}

// Started delivers the name of each conversion as it begins.
func (f *FakePrimitive) Started() <-chan string {
	return f.started
}

// Convert implements convert.Primitive. Output is "out:<name>:<format>".
func (f *FakePrimitive) Convert(ctx context.Context, req convert.Request) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	f.requests = append(f.requests, req)
	gate := f.gate
	ignore := f.ignoreContext
	failure := f.failures[req.Name]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	select {
	case f.started <- req.Name:
	default:
	}

	if gate != nil {
		if ignore {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if failure != nil {
		return nil, failure
	}
	return []byte("out:" + req.Name + ":" + req.Format.String()), nil
}

// Peak returns the highest number of simultaneous conversions observed.
func (f *FakePrimitive) Peak() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak
}

// InFlight returns the number of conversions currently running.
func (f *FakePrimitive) InFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

// Calls returns the number of Convert invocations.
func (f *FakePrimitive) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Requests returns a copy of every request received, in call order.
func (f *FakePrimitive) Requests() []convert.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]convert.Request(nil), f.requests...)
}
