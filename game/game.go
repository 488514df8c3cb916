// Package game runs a bingo session: announced numbers from the microphone
// or the keyboard are recorded, checked against the cards, and every new win
// is shown and spoken once.
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"easybingo/card"
	"easybingo/ledger"
	"easybingo/listen"
	"easybingo/locale"
	"easybingo/log"
	"easybingo/notify"
	"easybingo/recognizer"
)

var (
	ErrNoCards     = errors.New("no saved cards")
	ErrOutOfRange  = fmt.Errorf("number must be between %d and %d", card.MinNum, card.MaxNum)
	ErrSessionDone = errors.New("session closed")
)

// Source says where an announced number came from.
type Source string

const (
	Voice  Source = "voice"
	Manual Source = "manual"
)

// Sink receives everything the operator should see. Methods are called on
// the session goroutine and must not block.
type Sink interface {
	Announced(n int, src Source)
	Duplicate(n int)
	Win(w ledger.Win, message string)
	Heard(transcript string)
	State(s listen.State)
	Failure(f listen.Failure, message string)
	Notifications(items []notify.Notification)
}

// NopSink ignores every event. Embed it to implement part of Sink.
type NopSink struct{}

func (NopSink) Announced(int, Source)               {}
func (NopSink) Duplicate(int)                       {}
func (NopSink) Win(ledger.Win, string)              {}
func (NopSink) Heard(string)                        {}
func (NopSink) State(listen.State)                  {}
func (NopSink) Failure(listen.Failure, string)      {}
func (NopSink) Notifications([]notify.Notification) {}

// Cues plays short sounds for listening transitions and wins.
type Cues interface {
	Start()
	End()
	Error()
	Win()
}

type Config struct {
	Cards      []card.Card
	Recognizer recognizer.Recognizer // nil means no speech recognition
	Synth      notify.Synthesizer
	Desktop    notify.Notifier
	Locale     string
	Sink       Sink
	Cues       Cues

	// AfterFunc and Now replace the notification and retry clocks in tests.
	AfterFunc notify.AfterFunc
	Now       func() time.Time
}

type Session struct {
	cards   []card.Card
	sink    Sink
	cues    Cues
	recName string

	loc     *locale.Localizer
	ledger  *ledger.Ledger
	machine *listen.Machine
	notes   *notify.Scheduler

	mu      sync.Mutex
	queue   []func()
	closed  bool
	wake    chan struct{}
	stop    chan struct{}
	stopped sync.Once
	done    chan struct{}
	running bool

	wins      int
	lastState listen.State
}

func New(cfg Config) (*Session, error) {
	if len(cfg.Cards) == 0 {
		return nil, ErrNoCards
	}
	for i, c := range cfg.Cards {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("card %d: %w", i+1, err)
		}
	}
	rec := cfg.Recognizer
	if rec == nil {
		rec = recognizer.Unavailable{}
	}
	sink := cfg.Sink
	if sink == nil {
		sink = NopSink{}
	}

	s := &Session{
		cards:   append([]card.Card(nil), cfg.Cards...),
		sink:    sink,
		cues:    cfg.Cues,
		recName: rec.Name(),
		loc:     locale.New(cfg.Locale),
		ledger:  ledger.New(),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.notes = notify.New(notify.Config{
		Post:      func(fn func()) { s.Post(fn) },
		AfterFunc: cfg.AfterFunc,
		Now:       cfg.Now,
		Synth:     cfg.Synth,
		Locale:    s.loc.Tag(),
		Desktop:   cfg.Desktop,
		Title:     s.loc.T("ui.title", nil),
		OnChange:  sink.Notifications,
	})
	s.machine = listen.New(rec, func(fn func()) { s.Post(fn) },
		recognizer.Config{Language: s.loc.Tag()},
		listen.Callbacks{
			OnNumber:  func(n int) { s.announce(n, Voice) },
			OnHeard:   s.heard,
			OnState:   s.stateChanged,
			OnFailure: s.failed,
		})
	if cfg.AfterFunc != nil {
		s.machine.SetAfterFunc(func(d time.Duration, f func()) listen.Timer { return cfg.AfterFunc(d, f) })
	}
	return s, nil
}

// Post queues fn to run on the session goroutine. It reports false once the
// session is closed.
func (s *Session) Post(fn func()) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, fn)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the session goroutine and waits for it.
func (s *Session) Do(fn func()) error {
	ran := make(chan struct{})
	if !s.Post(func() { fn(); close(ran) }) {
		return ErrSessionDone
	}
	select {
	case <-ran:
		return nil
	case <-s.done:
		return ErrSessionDone
	}
}

func (s *Session) next() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil
	}
	fn := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	return fn
}

// Run drains posted work until ctx is done or Close is called. It must be
// called once.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running || s.closed {
		s.mu.Unlock()
		return ErrSessionDone
	}
	s.running = true
	s.mu.Unlock()
	defer close(s.done)

	log.SessionStart(s.recName, s.loc.Tag(), len(s.cards))
	s.sink.State(s.machine.State())

	for {
		select {
		case <-ctx.Done():
			s.teardown()
			return ctx.Err()
		case <-s.stop:
			s.teardown()
			return nil
		case <-s.wake:
		}
		for fn := s.next(); fn != nil; fn = s.next() {
			fn()
		}
	}
}

// Close stops the loop and releases the recognizer and timers.
func (s *Session) Close() {
	s.stopped.Do(func() { close(s.stop) })
	s.mu.Lock()
	running := s.running
	if !running {
		s.closed = true
	}
	s.mu.Unlock()
	if running {
		<-s.done
	}
}

func (s *Session) teardown() {
	s.mu.Lock()
	s.closed = true
	s.queue = nil
	s.mu.Unlock()

	s.machine.Close()
	s.notes.Close()
	log.SessionEnd(s.ledger.Len(), s.wins)
}

// AnnounceManual validates n and routes it through the same path as a
// recognized number.
func (s *Session) AnnounceManual(n int) error {
	if n < card.MinNum || n > card.MaxNum {
		return ErrOutOfRange
	}
	if !s.Post(func() { s.announce(n, Manual) }) {
		return ErrSessionDone
	}
	return nil
}

func (s *Session) ToggleListening() {
	s.Post(s.machine.Toggle)
}

// SetLocale switches labels, announcements and the recognition language.
func (s *Session) SetLocale(tag string) {
	s.Post(func() {
		s.loc = locale.New(tag)
		s.machine.SetLanguage(s.loc.Tag())
		s.notes.SetLocale(s.loc.Tag())
	})
}

// The accessors below read loop-owned state; call them from Do or a Sink.

func (s *Session) Announced() []int { return s.ledger.Announced() }

func (s *Session) Listening() listen.State { return s.machine.State() }

func (s *Session) announce(n int, src Source) {
	if !s.ledger.Record(n) {
		s.sink.Duplicate(n)
		return
	}
	log.Number(n, string(src))
	s.sink.Announced(n, src)

	for _, w := range s.ledger.NewWins(s.cards) {
		s.wins++
		msg := s.loc.WinMessage(w.Card, w.Event)
		row := 0
		if w.Row >= 0 {
			row = w.Row + 1
		}
		log.Win(w.Card+1, w.Kind.String(), row)
		s.notes.Announce(msg)
		if s.cues != nil {
			s.cues.Win()
		}
		s.sink.Win(w, msg)
	}
}

func (s *Session) heard(transcript string) {
	log.Heard(transcript, true)
	s.sink.Heard(transcript)
}

func (s *Session) stateChanged(st listen.State) {
	if st == s.lastState {
		s.sink.State(st)
		return
	}
	s.lastState = st
	log.ListenState(st.String())
	if s.cues != nil {
		switch st {
		case listen.Listening:
			s.cues.Start()
		case listen.Idle:
			s.cues.End()
		}
	}
	s.sink.State(st)
}

func (s *Session) failed(f listen.Failure) {
	log.Warnf("recognition: %v", f)
	if s.cues != nil {
		s.cues.Error()
	}
	s.sink.Failure(f, s.loc.Failure(f))
}
