// Package listen keeps a recognizer listening continuously. Recognition
// sessions end on their own; Machine restarts them until it is toggled off
// or the recognizer reports a permission failure.
package listen

import (
	"errors"
	"regexp"
	"strconv"
	"time"

	"easybingo/card"
	"easybingo/recognizer"
)

type State int

const (
	Idle State = iota
	Listening
	Faulted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

type FailureKind int

const (
	UnsupportedCapability FailureKind = iota
	PermissionDenied
	TransientRecognition
	StartFailure
)

func (k FailureKind) String() string {
	switch k {
	case UnsupportedCapability:
		return "unsupported"
	case PermissionDenied:
		return "permission-denied"
	case TransientRecognition:
		return "transient"
	case StartFailure:
		return "start-failure"
	default:
		return "unknown"
	}
}

// Failure is a recognition problem the operator should see.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f Failure) Error() string {
	if f.Err == nil {
		return f.Kind.String()
	}
	return f.Kind.String() + ": " + f.Err.Error()
}

func (f Failure) Unwrap() error { return f.Err }

var numberToken = regexp.MustCompile(`\d+`)

// ExtractNumber returns the first integer in transcript when it is a valid
// tombola number.
func ExtractNumber(transcript string) (int, bool) {
	tok := numberToken.FindString(transcript)
	if tok == "" {
		return 0, false
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < card.MinNum || n > card.MaxNum {
		return 0, false
	}
	return n, true
}

// Callbacks receive the machine's output. Nil fields are skipped.
type Callbacks struct {
	OnNumber  func(n int)
	OnHeard   func(transcript string)
	OnState   func(s State)
	OnFailure func(f Failure)
}

// Retry delays for attempts that end before the recognizer reports a start,
// such as a dial that cannot reach the service. The delay doubles per
// failed attempt and resets once an attempt starts.
const (
	MinRetryDelay = 500 * time.Millisecond
	MaxRetryDelay = 30 * time.Second
)

// Timer is the part of *time.Timer a pending retry needs.
type Timer interface {
	Stop() bool
}

type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Machine is driven from a single goroutine. Recognizer callbacks are
// handed to post, which must run them on that same goroutine in order.
type Machine struct {
	rec  recognizer.Recognizer
	post func(func())
	cfg  recognizer.Config
	cb   Callbacks

	state   State
	token   uint64 // identifies the current attempt; bumped on every start and teardown
	session recognizer.Session
	fault   *Failure

	after   AfterFunc
	started bool // the current attempt reported OnStart
	delay   time.Duration
	retry   Timer
}

func New(rec recognizer.Recognizer, post func(func()), cfg recognizer.Config, cb Callbacks) *Machine {
	return &Machine{rec: rec, post: post, cfg: cfg, cb: cb, after: realAfterFunc}
}

// SetAfterFunc replaces the clock used for retry delays.
func (m *Machine) SetAfterFunc(fn AfterFunc) {
	if fn == nil {
		fn = realAfterFunc
	}
	m.after = fn
}

// RetryDelay is the wait before the next attempt, zero when none is pending.
func (m *Machine) RetryDelay() time.Duration {
	if m.retry == nil {
		return 0
	}
	return m.delay
}

func (m *Machine) State() State { return m.state }

// Fault returns the failure that put the machine in Faulted.
func (m *Machine) Fault() (Failure, bool) {
	if m.fault == nil {
		return Failure{}, false
	}
	return *m.fault, true
}

// SetLanguage applies to the next recognition attempt.
func (m *Machine) SetLanguage(tag string) { m.cfg.Language = tag }

func (m *Machine) Toggle() {
	if m.state == Listening {
		m.Off()
		return
	}
	m.On()
}

// On starts listening from Idle or Faulted.
func (m *Machine) On() {
	if m.state == Listening {
		return
	}
	m.delay = 0
	m.setState(Listening)
	m.startAttempt()
}

// Off stops listening. The active session's handlers are removed before it
// is stopped, so its end event cannot restart anything.
func (m *Machine) Off() {
	if m.state != Listening {
		return
	}
	m.dropSession()
	m.setState(Idle)
}

// Close tears the machine down. It is safe to call in any state.
func (m *Machine) Close() {
	m.dropSession()
	m.state = Idle
}

func (m *Machine) startAttempt() {
	m.token++
	m.started = false
	tok := m.token
	h := recognizer.Handlers{
		OnStart: func() { m.post(func() { m.onStart(tok) }) },
		OnEnd:   func() { m.post(func() { m.onEnd(tok) }) },
		OnError: func(kind recognizer.ErrorKind, err error) {
			m.post(func() { m.onError(tok, kind, err) })
		},
		OnResult: func(text string, final bool) {
			if final {
				m.post(func() { m.onResult(tok, text) })
			}
		},
	}

	s, err := m.rec.Start(m.cfg, h)
	if err != nil {
		if tok != m.token {
			return
		}
		kind := StartFailure
		if errors.Is(err, recognizer.ErrUnsupported) {
			kind = UnsupportedCapability
		}
		m.token++
		m.fault = nil
		m.setState(Idle)
		m.emitFailure(Failure{Kind: kind, Err: err})
		return
	}
	if tok != m.token {
		// torn down by a callback delivered during Start
		s.ClearHandlers()
		s.Stop()
		return
	}
	m.session = s
	if m.fault != nil {
		m.fault = nil
		m.emitState()
	}
}

func (m *Machine) dropSession() {
	m.token++
	m.cancelRetry()
	if m.session == nil {
		return
	}
	s := m.session
	m.session = nil
	s.ClearHandlers()
	s.Stop()
}

func (m *Machine) onStart(tok uint64) {
	if tok != m.token {
		return
	}
	m.started = true
	m.delay = 0
	m.emitState()
}

func (m *Machine) onEnd(tok uint64) {
	if tok != m.token || m.state != Listening {
		return
	}
	m.session = nil
	if m.started {
		m.startAttempt()
		return
	}
	m.scheduleRetry()
}

// scheduleRetry waits before the next attempt. Bumping the token makes
// Off, Close or a newer attempt void the pending one.
func (m *Machine) scheduleRetry() {
	if m.delay == 0 {
		m.delay = MinRetryDelay
	} else {
		m.delay = min(2*m.delay, MaxRetryDelay)
	}
	m.token++
	tok := m.token
	m.retry = m.after(m.delay, func() {
		m.post(func() {
			if tok != m.token || m.state != Listening {
				return
			}
			m.retry = nil
			m.startAttempt()
		})
	})
}

func (m *Machine) cancelRetry() {
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
}

func (m *Machine) onError(tok uint64, kind recognizer.ErrorKind, err error) {
	if tok != m.token {
		return
	}
	if kind == recognizer.ErrorPermission {
		m.dropSession()
		f := Failure{Kind: PermissionDenied, Err: err}
		m.fault = &f
		m.setState(Faulted)
		m.emitFailure(f)
		return
	}
	m.emitFailure(Failure{Kind: TransientRecognition, Err: err})
}

func (m *Machine) onResult(tok uint64, text string) {
	if tok != m.token {
		return
	}
	if m.cb.OnHeard != nil {
		m.cb.OnHeard(text)
	}
	if n, ok := ExtractNumber(text); ok && m.cb.OnNumber != nil {
		m.cb.OnNumber(n)
	}
}

func (m *Machine) setState(s State) {
	if m.state == s {
		return
	}
	m.state = s
	m.emitState()
}

func (m *Machine) emitState() {
	if m.cb.OnState != nil {
		m.cb.OnState(m.state)
	}
}

func (m *Machine) emitFailure(f Failure) {
	if m.cb.OnFailure != nil {
		m.cb.OnFailure(f)
	}
}
