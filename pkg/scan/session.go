// Package scan drives tag-scanning attempts against an injected Reader.
//
// A Scanner owns at most one active Session. Starting a new session
// supersedes the previous one: its context is cancelled and any event it
// still produces is dropped before reaching the callbacks, so a late read can
// never overwrite the field the newer session targets.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ariyeh/bagtag/pkg/capability"
)

// State is the lifecycle position of a Session.
type State string

const (
	StateIdle                    State = "idle"
	StateStarting                State = "starting"
	StateAwaitingCapabilityCheck State = "awaiting-capability-check"
	StateListening               State = "listening"
	StateReading                 State = "reading"
	StateErrored                 State = "errored"
)

// Status messages emitted through Callbacks.OnStatus.
const (
	StatusStarting  = "Starting scan..."
	StatusListening = "Hold tag near the device to scan..."
	StatusNoData    = "Scanned, but no data found on tag."
)

// ScannedStatus is the confirmation emitted after a usable read.
func ScannedStatus(value string) string {
	return "Scanned tag: " + value
}

// Callbacks receive the results of one session. Callbacks are serialized per
// Scanner and must not call Start on the same Scanner.
type Callbacks struct {
	OnValue  func(value string)
	OnStatus func(status string)
	OnError  func(err error)
}

// Scanner starts sessions against one reader and one target.
type Scanner struct {
	env    capability.Environment
	reader Reader
	cfg    *Config
	logger *slog.Logger

	mu      sync.Mutex
	seq     uint64
	current *Session
}

// NewScanner creates a Scanner. A nil cfg uses DefaultConfig.
func NewScanner(env capability.Environment, reader Reader, cfg *Config, logger *slog.Logger) *Scanner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		env:    env,
		reader: reader,
		cfg:    cfg,
		logger: logger,
	}
}

// Session is one scanning attempt.
type Session struct {
	id    string
	token uint64

	mu         sync.Mutex
	state      State
	err        error
	values     int
	superseded bool
	cancel     context.CancelFunc
	done       chan struct{}
	closeOnce  sync.Once
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the terminal error, if the session errored.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Values returns how many usable values the session delivered.
func (s *Session) Values() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values
}

// Superseded reports whether a newer session replaced this one.
func (s *Session) Superseded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.superseded
}

// Done is closed when the session stops listening.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateErrored || s.superseded {
		return
	}
	s.state = st
}

func (s *Session) finish() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Start begins a new session, superseding the current one if any. The
// capability check runs synchronously; listening continues in the background
// until the reader closes its stream, an error occurs, the session times out,
// ctx is cancelled or a newer session starts.
func (sc *Scanner) Start(ctx context.Context, cb Callbacks) *Session {
	sess := &Session{
		id:    uuid.NewString(),
		state: StateIdle,
		done:  make(chan struct{}),
	}

	sc.mu.Lock()
	sc.seq++
	sess.token = sc.seq
	prev := sc.current
	sc.current = sess
	sc.mu.Unlock()

	if prev != nil {
		prev.supersede()
		sc.logger.Debug("scan session superseded", "sessionID", prev.id, "by", sess.id)
	}

	sess.setState(StateStarting)
	sc.status(sess, cb, StatusStarting)

	result := capability.Detect(sc.env)
	if !result.Secure {
		sc.fail(sess, cb, ErrInsecureContext)
		sess.finish()
		return sess
	}
	if !result.Supported || sc.reader == nil {
		sc.fail(sess, cb, ErrUnsupported)
		sess.finish()
		return sess
	}

	sess.setState(StateAwaitingCapabilityCheck)

	var runCtx context.Context
	var cancel context.CancelFunc
	if sc.cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, sc.cfg.Timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	sess.mu.Lock()
	sess.cancel = cancel
	superseded := sess.superseded
	sess.mu.Unlock()
	if superseded {
		cancel()
	}

	sc.logger.Info("scan session started", "sessionID", sess.id)
	go sc.run(runCtx, cancel, sess, cb)
	return sess
}

// Current returns the active session, or nil.
func (sc *Scanner) Current() *Session {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.current
}

// State returns the state of the active session, or idle when none is active.
func (sc *Scanner) State() State {
	if cur := sc.Current(); cur != nil {
		return cur.State()
	}
	return StateIdle
}

func (s *Session) supersede() {
	s.mu.Lock()
	s.superseded = true
	if s.state != StateErrored {
		s.state = StateIdle
	}
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (sc *Scanner) run(ctx context.Context, cancel context.CancelFunc, sess *Session, cb Callbacks) {
	defer sess.finish()
	defer cancel()

	readings, err := sc.reader.Scan(ctx)
	if err != nil {
		if sess.Superseded() {
			return
		}
		sc.fail(sess, cb, fmt.Errorf("%w: %w", ErrStartFailed, err))
		return
	}

	sess.setState(StateListening)
	sc.status(sess, cb, StatusListening)

	for {
		select {
		case <-ctx.Done():
			sc.stopped(ctx, sess, cb)
			return
		case r, ok := <-readings:
			if !ok {
				// readers close their stream on cancellation too
				if ctx.Err() != nil {
					sc.stopped(ctx, sess, cb)
					return
				}
				sess.setState(StateIdle)
				sc.logger.Debug("scan reader closed", "sessionID", sess.id)
				return
			}
			if r.Err != nil {
				sc.fail(sess, cb, fmt.Errorf("%w: %w", ErrReadFailed, r.Err))
				return
			}
			value, ok := ExtractValue(r)
			if !ok {
				sc.status(sess, cb, StatusNoData)
				continue
			}
			sc.deliver(sess, cb, value)
		}
	}
}

func (sc *Scanner) stopped(ctx context.Context, sess *Session, cb Callbacks) {
	switch {
	case sess.Superseded():
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		sc.fail(sess, cb, ErrTimeout)
	default:
		sess.setState(StateIdle)
	}
}

// dispatch runs fn while sess is still the active session and has not
// errored. The scanner lock is held so Start cannot interleave.
func (sc *Scanner) dispatch(sess *Session, fn func()) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sess.token != sc.seq {
		return false
	}
	if sess.State() == StateErrored {
		return false
	}
	fn()
	return true
}

func (sc *Scanner) status(sess *Session, cb Callbacks, msg string) {
	if cb.OnStatus == nil {
		return
	}
	sc.dispatch(sess, func() { cb.OnStatus(msg) })
}

func (sc *Scanner) deliver(sess *Session, cb Callbacks, value string) {
	delivered := sc.dispatch(sess, func() {
		sess.mu.Lock()
		sess.state = StateReading
		sess.mu.Unlock()
		if cb.OnValue != nil {
			cb.OnValue(value)
		}
		if cb.OnStatus != nil {
			cb.OnStatus(ScannedStatus(value))
		}
		// counted last so Values() > 0 implies the callbacks have run
		sess.mu.Lock()
		sess.values++
		sess.mu.Unlock()
	})
	if delivered {
		sc.logger.Info("tag scanned", "sessionID", sess.id, "tagCode", value)
	} else {
		sc.logger.Debug("dropped read from inactive scan session", "sessionID", sess.id)
	}
}

func (sc *Scanner) fail(sess *Session, cb Callbacks, err error) {
	applied := sc.dispatch(sess, func() {
		sess.mu.Lock()
		sess.state = StateErrored
		sess.err = err
		sess.mu.Unlock()
		if cb.OnError != nil {
			cb.OnError(err)
		}
	})
	if applied {
		sc.logger.Warn("scan session failed", "sessionID", sess.id, "error", err)
	}
}
