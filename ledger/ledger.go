// Package ledger keeps the announced numbers of a session and the wins
// already reported for them.
package ledger

import (
	"slices"

	"easybingo/card"
	"easybingo/win"
)

// Win is a win event attached to the card it happened on.
type Win struct {
	Card int
	win.Event
}

func (w Win) Key() win.Key { return w.Event.Key(w.Card) }

// Ledger is not safe for concurrent use; the session loop owns it.
type Ledger struct {
	announced []int
	seen      [card.MaxNum + 1]bool
	emitted   map[win.Key]struct{}
	pending   int // numbers recorded since the last NewWins
}

func New() *Ledger {
	return &Ledger{emitted: make(map[win.Key]struct{})}
}

// Record adds n and reports whether it was new. Numbers outside 1..90 are
// never recorded.
func (l *Ledger) Record(n int) bool {
	if n < card.MinNum || n > card.MaxNum || l.seen[n] {
		return false
	}
	l.seen[n] = true
	l.announced = append(l.announced, n)
	l.pending++
	return true
}

// NewWins evaluates every card and returns the wins not reported before, in
// card order, then row order, Bingo last.
func (l *Ledger) NewWins(cards []card.Card) []Win {
	eval := win.Evaluate
	if l.pending > 1 {
		eval = win.Satisfied
	}
	l.pending = 0

	var out []Win
	for i, c := range cards {
		for _, ev := range eval(c, l) {
			k := ev.Key(i)
			if _, dup := l.emitted[k]; dup {
				continue
			}
			l.emitted[k] = struct{}{}
			out = append(out, Win{Card: i, Event: ev})
		}
	}
	return out
}

func (l *Ledger) Has(n int) bool {
	return n >= card.MinNum && n <= card.MaxNum && l.seen[n]
}

// Announced returns the numbers in announcement order.
func (l *Ledger) Announced() []int {
	return slices.Clone(l.announced)
}

func (l *Ledger) Last() (int, bool) {
	if len(l.announced) == 0 {
		return 0, false
	}
	return l.announced[len(l.announced)-1], true
}

func (l *Ledger) Len() int { return len(l.announced) }

// Emitted returns how many distinct wins have been reported.
func (l *Ledger) Emitted() int { return len(l.emitted) }
