// Package speech reads announcements aloud. Speakers block until an
// utterance has finished; Queue puts them behind a non-blocking Speak so
// simultaneous wins are read one after the other.
package speech

import (
	"context"
	"sync"

	"easybingo/log"
)

// Speaker says one utterance and returns when it is done.
type Speaker interface {
	Name() string
	Say(ctx context.Context, text, locale string) error
}

type utterance struct {
	text   string
	locale string
}

// Queue serialises utterances in arrival order on one worker goroutine.
type Queue struct {
	sp     Speaker
	ch     chan utterance
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// DefaultQueueSize bounds the backlog; a full queue drops new utterances.
const DefaultQueueSize = 16

func NewQueue(sp Speaker, size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		sp:     sp,
		ch:     make(chan utterance, size),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

// Speak enqueues text and returns immediately.
func (q *Queue) Speak(text, locale string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	select {
	case q.ch <- utterance{text: text, locale: locale}:
	default:
		log.Warnf("speech queue full, dropped %q", text)
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		select {
		case <-q.ctx.Done():
			return
		case u := <-q.ch:
			if err := q.sp.Say(q.ctx, u.text, u.locale); err != nil && q.ctx.Err() == nil {
				log.Warnf("%s: %v", q.sp.Name(), err)
			}
		}
	}
}

// Close interrupts the current utterance, discards the backlog and waits
// for the worker to exit.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	q.cancel()
	<-q.done
}

// Silent discards everything. Used when speech is turned off.
type Silent struct{}

func (Silent) Speak(string, string) {}
