package scan

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ariyeh/bagtag/pkg/capability"
)

// fakeReader hands out one stream per Scan call. Readings pushed into a
// stream are forwarded until the session context is done.
type fakeReader struct {
	mu       sync.Mutex
	startErr error
	streams  []chan Reading
}

func (f *fakeReader) Scan(ctx context.Context) (<-chan Reading, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	in := make(chan Reading, 16)
	out := make(chan Reading)
	f.mu.Lock()
	f.streams = append(f.streams, in)
	f.mu.Unlock()

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case r, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (f *fakeReader) stream(t *testing.T, i int) chan Reading {
	t.Helper()
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.streams) > i
	}, time.Second, 5*time.Millisecond)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streams[i]
}

func (f *fakeReader) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.streams)
}

type recorder struct {
	mu       sync.Mutex
	values   []string
	statuses []string
	errs     []error
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnValue: func(v string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.values = append(r.values, v)
		},
		OnStatus: func(s string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.statuses = append(r.statuses, s)
		},
		OnError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		},
	}
}

func (r *recorder) Values() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func (r *recorder) Statuses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.statuses...)
}

func (r *recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func secureEnv(t *testing.T) capability.Environment {
	t.Helper()
	env, err := capability.NewStaticEnvironment("https://admin.example.com", true)
	require.NoError(t, err)
	return env
}

func waitState(t *testing.T, s *Session, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return s.State() == want }, time.Second, 5*time.Millisecond,
		"session never reached %s (last %s)", want, s.State())
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatalf("session %s did not finish", s.ID())
	}
}
