package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"easybingo/card"
	"easybingo/config"
	"easybingo/game"
	"easybingo/ledger"
	"easybingo/listen"
	"easybingo/locale"
	"easybingo/log"
	"easybingo/notify"
	"easybingo/recognizer"
)

// lineWriter serializes whole lines from several goroutines.
type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lineWriter) printf(format string, args ...any) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	fmt.Fprintf(lw.w, format+"\n", args...)
}

// textSink prints one line per session event.
type textSink struct {
	out       *lineWriter
	lastState listen.State
	sawState  bool
	lastNotes int
}

func (t *textSink) Announced(n int, src game.Source) { t.out.printf("NUMBER %d %s", n, src) }
func (t *textSink) Duplicate(n int)                  { t.out.printf("DUPLICATE %d", n) }
func (t *textSink) Heard(transcript string)          { t.out.printf("HEARD %s", transcript) }

func (t *textSink) Win(w ledger.Win, message string) {
	row := "-"
	if w.Row >= 0 {
		row = strconv.Itoa(w.Row + 1)
	}
	t.out.printf("WIN card=%d kind=%s row=%s %s", w.Card+1, strings.ToLower(w.Kind.String()), row, message)
}

func (t *textSink) State(s listen.State) {
	if t.sawState && s == t.lastState {
		return
	}
	t.sawState, t.lastState = true, s
	t.out.printf("STATE %s", s)
}

func (t *textSink) Failure(f listen.Failure, message string) {
	t.out.printf("FAILURE %s %s", f.Kind, message)
}

func (t *textSink) Notifications(items []notify.Notification) {
	live := 0
	for _, it := range items {
		if !it.Removing {
			live++
		}
	}
	if live != t.lastNotes {
		t.lastNotes = live
		t.out.printf("NOTES %d", live)
	}
}

// textSynth prints announcements instead of speaking them.
type textSynth struct{ out *lineWriter }

func (s textSynth) Speak(text, locale string) { s.out.printf("SPEAK %s %s", locale, text) }

var failKinds = map[string]recognizer.ErrorKind{
	"permission": recognizer.ErrorPermission,
	"network":    recognizer.ErrorNetwork,
	"nospeech":   recognizer.ErrorNoSpeech,
	"other":      recognizer.ErrorOther,
}

var errNotListening = errors.New("no recognition session running")

// runHeadless drives a session from line commands on in. SAY, END and FAIL
// need rec to be a *recognizer.Fake. A nil synth prints announcements to out.
func runHeadless(ctx context.Context, in io.Reader, out io.Writer, cfg *config.Config, cards []card.Card, rec recognizer.Recognizer, synth notify.Synthesizer) error {
	lw := &lineWriter{w: out}
	if synth == nil {
		synth = textSynth{out: lw}
	}
	sess, err := game.New(game.Config{
		Cards:      cards,
		Recognizer: rec,
		Synth:      synth,
		Desktop:    newDesktop(cfg),
		Locale:     cfg.Locale,
		Sink:       &textSink{out: lw},
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- sess.Run(ctx) }()

	fake, _ := rec.(*recognizer.Fake)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		quit, err := headlessCommand(ctx, sess, fake, line)
		if err != nil {
			lw.printf("ERROR %v", err)
			log.Warnf("headless %q: %v", line, err)
		}
		if quit {
			break
		}
		if err := flush(sess); err != nil {
			break
		}
	}

	sess.Close()
	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return sc.Err()
}

// flush waits until the work a command queued, and whatever that work
// queued in turn, has run.
func flush(sess *game.Session) error {
	for range 2 {
		if err := sess.Do(func() {}); err != nil {
			return err
		}
	}
	return nil
}

func headlessCommand(ctx context.Context, sess *game.Session, fake *recognizer.Fake, line string) (quit bool, err error) {
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToUpper(verb) {
	case "NUM":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return false, fmt.Errorf("NUM: %q is not a number", rest)
		}
		return false, sess.AnnounceManual(n)
	case "TOGGLE":
		sess.ToggleListening()
		return false, nil
	case "LOCALE":
		tag, ok := locale.Match(rest)
		if !ok {
			return false, fmt.Errorf("LOCALE: no catalog for %q", rest)
		}
		sess.SetLocale(tag)
		return false, nil
	case "SAY", "END", "FAIL":
		return false, scriptRecognizer(fake, strings.ToUpper(verb), rest)
	case "SLEEP":
		ms, err := strconv.Atoi(rest)
		if err != nil || ms < 0 {
			return false, fmt.Errorf("SLEEP: %q is not a duration in ms", rest)
		}
		select {
		case <-time.After(time.Duration(ms) * time.Millisecond):
		case <-ctx.Done():
			return true, nil
		}
		return false, nil
	case "WAIT":
		return false, nil
	case "QUIT":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q", verb)
	}
}

func scriptRecognizer(fake *recognizer.Fake, verb, rest string) error {
	if fake == nil {
		return fmt.Errorf("%s needs --test", verb)
	}
	s := fake.Current()
	if s == nil || s.Stopped() {
		return errNotListening
	}
	switch verb {
	case "SAY":
		s.Say(rest)
	case "END":
		s.End()
	case "FAIL":
		kindName, msg, _ := strings.Cut(rest, " ")
		kind, ok := failKinds[strings.ToLower(kindName)]
		if !ok {
			return fmt.Errorf("FAIL: unknown kind %q", kindName)
		}
		if msg == "" {
			msg = kindName
		}
		s.Fail(kind, errors.New(msg))
	}
	return nil
}
