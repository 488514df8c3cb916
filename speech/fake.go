package speech

import (
	"context"
	"sync"
)

// Fake records utterances. With Block set, each Say waits on it, letting
// tests observe a busy speaker.
type Fake struct {
	Block chan struct{}

	mu     sync.Mutex
	said   []string
	active int
	peak   int
	spoke  chan string
}

func NewFake() *Fake {
	return &Fake{spoke: make(chan string, 64)}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Say(ctx context.Context, text, locale string) error {
	f.mu.Lock()
	f.active++
	f.peak = max(f.peak, f.active)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.said = append(f.said, locale+"|"+text)
		f.mu.Unlock()
		select {
		case f.spoke <- text:
		default:
		}
	}()

	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Spoke delivers each finished utterance's text.
func (f *Fake) Spoke() <-chan string { return f.spoke }

// Said returns "locale|text" for each finished utterance, in order.
func (f *Fake) Said() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.said...)
}

// Peak is the highest number of concurrent Say calls seen.
func (f *Fake) Peak() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak
}
