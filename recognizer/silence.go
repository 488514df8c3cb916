package recognizer

import "time"

const (
	tickInterval     = 100 * time.Millisecond
	speechMinRatio   = 0.10
	speechClearRatio = 0.25 // higher threshold to clear the quiet flag (hysteresis)
)

type silenceEvent int

const (
	silenceNone    silenceEvent = iota
	silenceQuiet                // half the window without voice
	silenceResumed              // speech came back after silenceQuiet
	silenceEnd                  // whole window without voice; end the session
)

// silenceMonitor keeps a ring of per-tick speech flags and reports when the
// caller has gone quiet for long enough that the session should end.
type silenceMonitor struct {
	warnAt   int
	windowSz int

	ticks       int
	window      []bool
	speechCount int
	warned      bool
}

func newSilenceMonitor(endAfter time.Duration) *silenceMonitor {
	windowSz := max(1, int(endAfter/tickInterval))
	return &silenceMonitor{
		warnAt:   max(1, windowSz/2),
		windowSz: windowSz,
		window:   make([]bool, windowSz),
	}
}

func (m *silenceMonitor) ratio(n int) float64 {
	if m.ticks < n {
		n = m.ticks
	}
	if n == 0 {
		return 1.0
	}
	count := 0
	for i := 0; i < n; i++ {
		if m.window[(m.ticks-1-i+m.windowSz)%m.windowSz] {
			count++
		}
	}
	return float64(count) / float64(n)
}

func (m *silenceMonitor) Tick(hasSpeech bool) silenceEvent {
	idx := m.ticks % m.windowSz
	if m.ticks >= m.windowSz && m.window[idx] {
		m.speechCount--
	}
	m.window[idx] = hasSpeech
	if hasSpeech {
		m.speechCount++
	}
	m.ticks++

	if m.ticks >= m.windowSz && float64(m.speechCount)/float64(m.windowSz) < speechMinRatio {
		return silenceEnd
	}

	r := m.ratio(m.warnAt)
	if m.ticks >= m.warnAt && r < speechMinRatio && !m.warned {
		m.warned = true
		return silenceQuiet
	}
	if m.warned && r >= speechClearRatio {
		m.warned = false
		return silenceResumed
	}
	return silenceNone
}
