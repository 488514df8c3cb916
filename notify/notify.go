// Package notify shows win notifications for a fixed time and has them
// spoken aloud.
package notify

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"easybingo/log"
)

const (
	// TTL is how long a notification stays fully visible.
	TTL = 20 * time.Second
	// RemoveDelay is how long a notification stays in the removing state.
	RemoveDelay = 600 * time.Millisecond
)

type Notification struct {
	ID        string
	Message   string
	CreatedAt time.Time
	Removing  bool
}

// Timer is the part of *time.Timer the scheduler uses.
type Timer interface {
	Stop() bool
}

type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Synthesizer speaks text without blocking the caller.
type Synthesizer interface {
	Speak(text, locale string)
}

// Notifier mirrors a notification outside the application.
type Notifier interface {
	Notify(title, message string) error
}

type Config struct {
	// Post runs fn on the goroutine that owns the scheduler. Timer
	// callbacks go through it.
	Post      func(fn func())
	AfterFunc AfterFunc
	Now       func() time.Time
	Synth     Synthesizer
	Locale    string
	Desktop   Notifier
	Title     string // desktop notification title
	OnChange  func(items []Notification)
}

// Scheduler must be used from the goroutine Config.Post runs on.
type Scheduler struct {
	cfg    Config
	items  []Notification
	timers map[string]Timer
	closed bool
}

func New(cfg Config) *Scheduler {
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = realAfterFunc
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Post == nil {
		cfg.Post = func(fn func()) { fn() }
	}
	return &Scheduler{cfg: cfg, timers: make(map[string]Timer)}
}

// SetLocale changes the language later announcements are spoken in.
func (s *Scheduler) SetLocale(tag string) { s.cfg.Locale = tag }

// Schedule shows message and returns the new notification's id.
func (s *Scheduler) Schedule(message string) string {
	if s.closed {
		return ""
	}
	n := Notification{ID: uuid.NewString(), Message: message, CreatedAt: s.cfg.Now()}
	s.items = append(s.items, n)
	s.timers[n.ID] = s.cfg.AfterFunc(TTL, func() {
		s.cfg.Post(func() { s.markRemoving(n.ID) })
	})
	s.changed()

	if d := s.cfg.Desktop; d != nil {
		title := s.cfg.Title
		go func() {
			if err := d.Notify(title, message); err != nil {
				log.Warnf("desktop notification: %v", err)
			}
		}()
	}
	return n.ID
}

// Announce schedules message and asks the synthesizer to speak it.
func (s *Scheduler) Announce(message string) string {
	id := s.Schedule(message)
	if id != "" && s.cfg.Synth != nil {
		s.cfg.Synth.Speak(message, s.cfg.Locale)
	}
	return id
}

func (s *Scheduler) markRemoving(id string) {
	if s.closed {
		return
	}
	i := s.index(id)
	if i < 0 {
		return
	}
	s.items[i].Removing = true
	s.timers[id] = s.cfg.AfterFunc(RemoveDelay, func() {
		s.cfg.Post(func() { s.remove(id) })
	})
	s.changed()
}

func (s *Scheduler) remove(id string) {
	if s.closed {
		return
	}
	i := s.index(id)
	if i < 0 {
		return
	}
	s.items = slices.Delete(s.items, i, i+1)
	delete(s.timers, id)
	s.changed()
}

func (s *Scheduler) index(id string) int {
	return slices.IndexFunc(s.items, func(n Notification) bool { return n.ID == id })
}

// Items returns the visible notifications, oldest first.
func (s *Scheduler) Items() []Notification {
	return slices.Clone(s.items)
}

// Pending returns the number of armed timers.
func (s *Scheduler) Pending() int { return len(s.timers) }

// Close stops every pending timer. Callbacks already posted become no-ops.
func (s *Scheduler) Close() {
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) changed() {
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(s.Items())
	}
}
