// Package win evaluates cards against the announced numbers.
package win

import "easybingo/card"

type Kind int

const (
	Terno Kind = iota
	Quine
	Bingo
)

func (k Kind) String() string {
	switch k {
	case Terno:
		return "Terno"
	case Quine:
		return "Quine"
	case Bingo:
		return "Bingo"
	default:
		return "unknown"
	}
}

// NoRow is the row of a Bingo event.
const NoRow = -1

const (
	ternoCount = 3
	quineCount = card.PerRow
)

// Event is one satisfied win condition on a single card.
type Event struct {
	Kind Kind
	Row  int
}

// Key identifies an emitted win within a session.
type Key struct {
	Card int
	Kind Kind
	Row  int
}

func (e Event) Key(cardIndex int) Key {
	return Key{Card: cardIndex, Kind: e.Kind, Row: e.Row}
}

// Marked reports whether a number has been announced.
type Marked interface {
	Has(n int) bool
}

// Evaluate returns the wins whose count was reached exactly. It assumes the
// announced set grew by at most one number since the previous call.
func Evaluate(c card.Card, marked Marked) []Event {
	return evaluate(c, marked, func(count, want int) bool { return count == want })
}

// Satisfied returns every win whose threshold is met. Callers must dedup;
// use it when several numbers may have arrived between evaluations.
func Satisfied(c card.Card, marked Marked) []Event {
	return evaluate(c, marked, func(count, want int) bool { return count >= want })
}

func evaluate(c card.Card, marked Marked, hit func(count, want int) bool) []Event {
	var events []Event
	total := 0
	for r := 0; r < card.Rows; r++ {
		n := 0
		for col := 0; col < card.Cols; col++ {
			if v := c[r][col]; v != 0 && marked.Has(v) {
				n++
			}
		}
		total += n
		if hit(n, ternoCount) {
			events = append(events, Event{Kind: Terno, Row: r})
		}
		if hit(n, quineCount) {
			events = append(events, Event{Kind: Quine, Row: r})
		}
	}
	if total == card.Total {
		events = append(events, Event{Kind: Bingo, Row: NoRow})
	}
	return events
}

// Set is a plain Marked backed by a map, for one-off evaluation.
type Set map[int]bool

func NewSet(nums ...int) Set {
	s := make(Set, len(nums))
	for _, n := range nums {
		s[n] = true
	}
	return s
}

func (s Set) Has(n int) bool { return s[n] }
