package hotkey

import (
	"context"
	"time"
)

// DefaultDebounce drops presses that follow the previous one too closely,
// such as key bounce on some keyboards.
const DefaultDebounce = 250 * time.Millisecond

// Watch calls toggle for every press of hk until ctx is done. now may be nil.
func Watch(ctx context.Context, hk Hotkey, debounce time.Duration, now func() time.Time, toggle func()) {
	if now == nil {
		now = time.Now
	}
	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-hk.Pressed():
			t := now()
			if !last.IsZero() && t.Sub(last) < debounce {
				continue
			}
			last = t
			toggle()
		}
	}
}
