package hackrf

import (
	"sync"
	"sync/atomic"
)

// controlCall records one control transfer seen by the fake transport.
type controlCall struct {
	in      bool
	request Request
	value   uint16
	index   uint16
	data    []byte
}

// fakeTransport is an in-memory Transport for driver tests. Control-in
// responses are scripted per request code; bulk reads are delegated to a
// test-provided function.
type fakeTransport struct {
	mu       sync.Mutex
	calls    []controlCall
	replies  map[Request][]byte
	writeErr error
	readErr  error

	bulk    func(buf []byte) (int, error)
	version uint16
	gone    atomic.Bool
	closed  atomic.Bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		replies: make(map[Request][]byte),
		version: 0x0104,
		bulk: func(buf []byte) (int, error) {
			return 0, ErrTimeout
		},
	}
}

func (f *fakeTransport) ControlOut(request Request, value, index uint16, data []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, controlCall{request: request, value: value, index: index, data: append([]byte(nil), data...)})
	return nil
}

func (f *fakeTransport) ControlIn(request Request, value, index uint16, buf []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}

	f.mu.Lock()
	f.calls = append(f.calls, controlCall{in: true, request: request, value: value, index: index})
	reply := f.replies[request]
	f.mu.Unlock()

	return copy(buf, reply), nil
}

func (f *fakeTransport) BulkIn(buf []byte) (int, error) {
	return f.bulk(buf)
}

func (f *fakeTransport) DeviceVersion() uint16 { return f.version }

func (f *fakeTransport) Connected() bool { return !f.gone.Load() && !f.closed.Load() }

func (f *fakeTransport) Close() error {
	f.closed.Store(true)
	return nil
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTransport) lastCall() controlCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return controlCall{}
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeTransport) callsFor(request Request) []controlCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []controlCall
	for _, c := range f.calls {
		if c.request == request {
			out = append(out, c)
		}
	}
	return out
}

// configureForReceive marks the device ready to enter an active mode by
// running the real configuration path against the fake.
func configureForReceive(d *Device) error {
	return d.SetSampleRate(10_000_000)
}
