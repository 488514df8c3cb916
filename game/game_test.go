package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easybingo/card"
	"easybingo/ledger"
	"easybingo/listen"
	"easybingo/notify"
	"easybingo/recognizer"
	"easybingo/win"
)

var testCard = card.Card{
	{5, 12, 0, 34, 44, 0, 0, 0, 85},
	{0, 15, 21, 0, 0, 56, 63, 0, 88},
	{7, 0, 25, 0, 47, 0, 0, 71, 90},
}

type recordingSink struct {
	mu        sync.Mutex
	announced []int
	sources   []Source
	dupes     []int
	wins      []ledger.Win
	messages  []string
	heard     []string
	states    []listen.State
	failures  []listen.Failure
	failMsgs  []string
	notes     []notify.Notification
}

func (r *recordingSink) Announced(n int, src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.announced = append(r.announced, n)
	r.sources = append(r.sources, src)
}

func (r *recordingSink) Duplicate(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dupes = append(r.dupes, n)
}

func (r *recordingSink) Win(w ledger.Win, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wins = append(r.wins, w)
	r.messages = append(r.messages, message)
}

func (r *recordingSink) Heard(t string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.heard = append(r.heard, t)
}

func (r *recordingSink) State(s listen.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recordingSink) Failure(f listen.Failure, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, f)
	r.failMsgs = append(r.failMsgs, message)
}

func (r *recordingSink) Notifications(items []notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = items
}

type recordingSynth struct {
	mu    sync.Mutex
	spoke []string
}

func (s *recordingSynth) Speak(text, locale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoke = append(s.spoke, locale+"|"+text)
}

type countingCues struct {
	mu                    sync.Mutex
	start, end, err, wins int
}

func (c *countingCues) bump(n *int) {
	c.mu.Lock()
	*n++
	c.mu.Unlock()
}

func (c *countingCues) Start() { c.bump(&c.start) }
func (c *countingCues) End()   { c.bump(&c.end) }
func (c *countingCues) Error() { c.bump(&c.err) }
func (c *countingCues) Win()   { c.bump(&c.wins) }

// manualTimers holds notification timers until the test fires them.
type manualTimers struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (m *manualTimers) AfterFunc(d time.Duration, fn func()) notify.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{d: d, fn: fn}
	m.pending = append(m.pending, t)
	return t
}

// fire runs every armed timer with duration d.
func (m *manualTimers) fire(d time.Duration) int {
	m.mu.Lock()
	var due []*manualTimer
	rest := m.pending[:0]
	for _, t := range m.pending {
		if t.d == d && !t.stopped {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	m.pending = rest
	m.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
	return len(due)
}

type harness struct {
	s      *Session
	rec    *recognizer.Fake
	sink   *recordingSink
	synth  *recordingSynth
	cues   *countingCues
	timers *manualTimers
	runErr chan error
}

func start(t *testing.T, cards ...card.Card) *harness {
	t.Helper()
	if len(cards) == 0 {
		cards = []card.Card{testCard}
	}
	h := &harness{
		rec:    recognizer.NewFake(),
		sink:   &recordingSink{},
		synth:  &recordingSynth{},
		cues:   &countingCues{},
		timers: &manualTimers{},
		runErr: make(chan error, 1),
	}
	s, err := New(Config{
		Cards:      cards,
		Recognizer: h.rec,
		Synth:      h.synth,
		Locale:     "en-US",
		Sink:       h.sink,
		Cues:       h.cues,
		AfterFunc:  h.timers.AfterFunc,
	})
	require.NoError(t, err)
	h.s = s
	go func() { h.runErr <- s.Run(context.Background()) }()
	t.Cleanup(s.Close)
	return h
}

// flush waits until everything posted so far has run, including work the
// first round posted.
func (h *harness) flush(t *testing.T) {
	t.Helper()
	require.NoError(t, h.s.Do(func() {}))
	require.NoError(t, h.s.Do(func() {}))
}

func (h *harness) announce(t *testing.T, ns ...int) {
	t.Helper()
	for _, n := range ns {
		require.NoError(t, h.s.AnnounceManual(n))
	}
	h.flush(t)
}

func TestNewRejectsEmptyAndInvalidCards(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNoCards)

	bad := testCard
	bad[0][0] = 55
	_, err = New(Config{Cards: []card.Card{bad}})
	assert.ErrorIs(t, err, card.ErrInvalid)
}

func TestTernoThenQuine(t *testing.T) {
	h := start(t)

	h.announce(t, 5, 12)
	assert.Empty(t, h.sink.wins)

	h.announce(t, 34)
	require.Len(t, h.sink.wins, 1)
	assert.Equal(t, win.Terno, h.sink.wins[0].Kind)
	assert.Equal(t, 0, h.sink.wins[0].Row)
	assert.Equal(t, "Card 1: Terno (Row 1)!", h.sink.messages[0])

	h.announce(t, 44, 85)
	require.Len(t, h.sink.wins, 2)
	assert.Equal(t, win.Quine, h.sink.wins[1].Kind)
	assert.Equal(t, []string{
		"en-US|Card 1: Terno (Row 1)!",
		"en-US|Card 1: Quine (Row 1)!",
	}, h.synth.spoke)
	assert.Equal(t, 2, h.cues.wins)
	assert.Equal(t, []Source{Manual, Manual, Manual, Manual, Manual}, h.sink.sources)
}

func TestBingoAfterFullCard(t *testing.T) {
	h := start(t)
	h.announce(t, testCard.Numbers()...)

	require.NoError(t, h.s.Do(func() {
		assert.Equal(t, card.Total, len(h.s.Announced()))
		last, ok := h.s.ledger.Last()
		assert.True(t, ok)
		assert.Equal(t, 90, last)
	}))
	last := h.sink.wins[len(h.sink.wins)-1]
	assert.Equal(t, win.Bingo, last.Kind)
	assert.Equal(t, "Card 1: Bingo!", h.sink.messages[len(h.sink.messages)-1])

	// each row yields one Terno and one Quine, then one Bingo
	assert.Len(t, h.sink.wins, 7)
}

func TestDuplicateIsNoop(t *testing.T) {
	h := start(t)
	h.announce(t, 5, 12, 34)
	h.announce(t, 34)
	assert.Equal(t, []int{34}, h.sink.dupes)
	assert.Len(t, h.sink.wins, 1)
	assert.Equal(t, []int{5, 12, 34}, h.sink.announced)
}

func TestManualOutOfRange(t *testing.T) {
	h := start(t)
	assert.ErrorIs(t, h.s.AnnounceManual(0), ErrOutOfRange)
	assert.ErrorIs(t, h.s.AnnounceManual(91), ErrOutOfRange)
	h.flush(t)
	assert.Empty(t, h.sink.announced)
}

func TestVoiceNumbers(t *testing.T) {
	h := start(t)
	h.s.ToggleListening()
	h.flush(t)
	require.Equal(t, 1, h.rec.Starts())
	assert.Equal(t, "en-US", h.rec.Current().Config.Language)

	h.rec.Current().Say("number 12")
	h.rec.Current().Say("the 99 bus")
	h.rec.Current().Interim("5")
	h.flush(t)

	assert.Equal(t, []int{12}, h.sink.announced)
	assert.Equal(t, []Source{Voice}, h.sink.sources)
	assert.Equal(t, []string{"number 12", "the 99 bus"}, h.sink.heard)
}

func TestToggleOffOnKeepsOneSession(t *testing.T) {
	h := start(t)
	h.s.ToggleListening()
	h.s.ToggleListening()
	h.s.ToggleListening()
	h.flush(t)

	assert.Equal(t, 2, h.rec.Starts())
	assert.Equal(t, 1, h.rec.Stops())
	assert.True(t, h.rec.Session(0).Cleared())
	assert.False(t, h.rec.Current().Stopped())

	require.NoError(t, h.s.Do(func() {
		assert.Equal(t, listen.Listening, h.s.Listening())
	}))
	assert.Equal(t, 2, h.cues.start)
	assert.Equal(t, 1, h.cues.end)
}

func TestSessionEndRestarts(t *testing.T) {
	h := start(t)
	h.s.ToggleListening()
	h.flush(t)
	h.rec.Current().End()
	h.flush(t)
	assert.Equal(t, 2, h.rec.Starts())

	// events from the ended session are ignored
	h.rec.Session(0).Say("7")
	h.flush(t)
	assert.Empty(t, h.sink.announced)
}

func TestPermissionFailureFaults(t *testing.T) {
	h := start(t)
	h.s.ToggleListening()
	h.flush(t)
	h.rec.Current().Fail(recognizer.ErrorPermission, errors.New("denied"))
	h.flush(t)

	require.Len(t, h.sink.failures, 1)
	assert.Equal(t, listen.PermissionDenied, h.sink.failures[0].Kind)
	assert.Contains(t, h.sink.failMsgs[0], "Microphone")
	assert.Equal(t, listen.Faulted, h.sink.states[len(h.sink.states)-1])
	assert.Equal(t, 1, h.cues.err)
	assert.Equal(t, 1, h.rec.Starts())

	h.s.ToggleListening()
	h.flush(t)
	assert.Equal(t, 2, h.rec.Starts())
	assert.Equal(t, listen.Listening, h.sink.states[len(h.sink.states)-1])
}

func TestNoRecognizerReportsUnsupported(t *testing.T) {
	s, err := New(Config{Cards: []card.Card{testCard}})
	require.NoError(t, err)
	sink := &recordingSink{}
	s.sink = sink
	go s.Run(context.Background())
	defer s.Close()

	s.ToggleListening()
	require.NoError(t, s.Do(func() {}))
	require.NoError(t, s.Do(func() {}))
	require.Len(t, sink.failures, 1)
	assert.Equal(t, listen.UnsupportedCapability, sink.failures[0].Kind)
	assert.Equal(t, listen.Idle, sink.states[len(sink.states)-1])
}

func TestNotificationsExpire(t *testing.T) {
	h := start(t)
	h.announce(t, 5, 12, 34)
	require.Len(t, h.sink.notes, 1)
	assert.False(t, h.sink.notes[0].Removing)

	assert.Equal(t, 1, h.timers.fire(notify.TTL))
	h.flush(t)
	require.Len(t, h.sink.notes, 1)
	assert.True(t, h.sink.notes[0].Removing)

	assert.Equal(t, 1, h.timers.fire(notify.RemoveDelay))
	h.flush(t)
	assert.Empty(t, h.sink.notes)
}

func TestSetLocale(t *testing.T) {
	h := start(t)
	h.s.SetLocale("fr")
	h.announce(t, 5, 12, 34)
	assert.Equal(t, "Carton 1 : Terne (ligne 1) !", h.sink.messages[0])
	assert.Equal(t, "fr-FR|Carton 1 : Terne (ligne 1) !", h.synth.spoke[0])

	h.s.ToggleListening()
	h.flush(t)
	assert.Equal(t, "fr-FR", h.rec.Current().Config.Language)
}

func TestCloseReleasesRecognizer(t *testing.T) {
	h := start(t)
	h.s.ToggleListening()
	h.announce(t, 5, 12, 34)
	sess := h.rec.Current()

	h.s.Close()
	assert.NoError(t, <-h.runErr)
	assert.True(t, sess.Cleared())
	assert.True(t, sess.Stopped())
	assert.Equal(t, 0, h.timers.fire(notify.TTL), "timers are stopped on close")

	assert.ErrorIs(t, h.s.AnnounceManual(5), ErrSessionDone)
	assert.ErrorIs(t, h.s.Do(func() {}), ErrSessionDone)
}

func TestRunStopsOnContext(t *testing.T) {
	s, err := New(Config{Cards: []card.Card{testCard}})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	require.NoError(t, s.Do(func() {}))
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.ErrorIs(t, s.Run(context.Background()), ErrSessionDone)
}

func TestCloseBeforeRun(t *testing.T) {
	s, err := New(Config{Cards: []card.Card{testCard}})
	require.NoError(t, err)
	s.Close()
	assert.ErrorIs(t, s.Run(context.Background()), ErrSessionDone)
}

func TestUnreachableRecognizerRetriesOnTimer(t *testing.T) {
	h := start(t)
	h.rec.FailConnecting(errors.New("connection refused"))
	h.s.ToggleListening()
	for range 50 {
		h.flush(t)
	}
	assert.Equal(t, 1, h.rec.Starts())
	require.NoError(t, h.s.Do(func() { assert.Equal(t, listen.Listening, h.s.Listening()) }))

	require.Equal(t, 1, h.timers.fire(listen.MinRetryDelay))
	h.flush(t)
	assert.Equal(t, 2, h.rec.Starts())

	h.rec.FailConnecting(nil)
	require.Equal(t, 1, h.timers.fire(2*listen.MinRetryDelay))
	h.flush(t)
	assert.Equal(t, 3, h.rec.Starts())
	assert.Equal(t, 0, h.timers.fire(listen.MinRetryDelay))
}
