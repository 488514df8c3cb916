package recognizer

import "sync"

// Fake is a scripted recognizer. Callbacks run synchronously on the goroutine
// that triggers them (Start, Say, End, Fail, Stop).
type Fake struct {
	mu       sync.Mutex
	startErr error
	connErr  error
	starts   int
	stops    int
	sessions []*FakeSession
}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) Name() string { return "fake" }

// FailNextStart makes the next Start return err.
func (f *Fake) FailNextStart(err error) {
	f.mu.Lock()
	f.startErr = err
	f.mu.Unlock()
}

// FailConnecting makes every later session report err as a network error
// and end without ever starting, like a dial that cannot reach the service.
// nil restores normal sessions.
func (f *Fake) FailConnecting(err error) {
	f.mu.Lock()
	f.connErr = err
	f.mu.Unlock()
}

func (f *Fake) Start(cfg Config, h Handlers) (Session, error) {
	f.mu.Lock()
	f.starts++
	if err := f.startErr; err != nil {
		f.startErr = nil
		f.mu.Unlock()
		return nil, err
	}
	s := &FakeSession{fake: f, Config: cfg, handlers: newHandlerBox(h)}
	f.sessions = append(f.sessions, s)
	connErr := f.connErr
	f.mu.Unlock()

	if connErr != nil {
		s.handlers.error(ErrorNetwork, connErr)
		s.handlers.end()
		return s, nil
	}
	s.handlers.start()
	return s, nil
}

func (f *Fake) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *Fake) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

// Current returns the most recently started session, or nil.
func (f *Fake) Current() *FakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sessions) == 0 {
		return nil
	}
	return f.sessions[len(f.sessions)-1]
}

// Session returns the i-th started session.
func (f *Fake) Session(i int) *FakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[i]
}

type FakeSession struct {
	Config Config

	fake     *Fake
	handlers *handlerBox

	mu      sync.Mutex
	stopped bool
	cleared bool
}

func (s *FakeSession) ClearHandlers() {
	s.mu.Lock()
	s.cleared = true
	s.mu.Unlock()
	s.handlers.clear()
}

// Stop ends the session and fires OnEnd like a real platform would.
func (s *FakeSession) Stop() {
	s.mu.Lock()
	already := s.stopped
	s.stopped = true
	s.mu.Unlock()
	if already {
		return
	}
	s.fake.mu.Lock()
	s.fake.stops++
	s.fake.mu.Unlock()
	s.handlers.end()
}

func (s *FakeSession) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *FakeSession) Cleared() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}

// Say delivers a final transcript.
func (s *FakeSession) Say(text string) { s.handlers.result(text, true) }

// Interim delivers a non-final transcript.
func (s *FakeSession) Interim(text string) { s.handlers.result(text, false) }

// End simulates the platform ending the session on its own.
func (s *FakeSession) End() { s.handlers.end() }

func (s *FakeSession) Fail(kind ErrorKind, err error) { s.handlers.error(kind, err) }
