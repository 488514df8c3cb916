package doctor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"easybingo/hotkey"
	"easybingo/listen"
	"easybingo/locale"
	"easybingo/recognizer"
	"easybingo/speech"
	"easybingo/store"
	"easybingo/win"
)

// Env holds what the checks exercise. Nil collaborators skip their check.
type Env struct {
	In  io.Reader
	Out io.Writer

	Hotkey     hotkey.Hotkey
	// HotkeyInfo describes the keyboards the hotkey can see, before the
	// press test. Usually hotkey.Diagnose.
	HotkeyInfo func() (string, error)
	Recognizer recognizer.Recognizer
	Speaker    speech.Speaker
	Store      store.Store
	Locale     string

	// Listen bounds the microphone check. Zero means 10s.
	Listen time.Duration
	// Interactive resets the terminal between steps.
	Interactive bool
}

type check struct {
	title string
	skip  bool
	run   func(ctx context.Context, env *Env, r *bufio.Reader) bool
}

// Run executes the checks in order and returns an exit code (0=all pass,
// 1=any fail).
func Run(ctx context.Context, env Env) int {
	if env.In == nil {
		env.In = os.Stdin
	}
	if env.Out == nil {
		env.Out = os.Stdout
	}
	if env.Listen == 0 {
		env.Listen = 10 * time.Second
	}
	if env.Interactive {
		resetTerminal()
	}

	out := env.Out
	fmt.Fprintln(out, "easybingo doctor - system diagnostics")
	fmt.Fprintln(out, "=====================================")

	checks := []check{
		{"Saved cards", env.Store == nil, checkStore},
		{"Hotkey detection", env.Hotkey == nil, checkHotkey},
		{"Microphone and recognition", env.Recognizer == nil, checkRecognition},
		{"Spoken announcements", env.Speaker == nil, checkSpeech},
	}

	r := bufio.NewReader(env.In)
	allPass := true
	for i, c := range checks {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "[%d/%d] %s\n", i+1, len(checks), c.title)
		if c.skip {
			fmt.Fprintln(out, "  SKIP: not configured")
			continue
		}
		if !c.run(ctx, &env, r) {
			allPass = false
		}
		if env.Interactive {
			resetTerminal()
		}
	}

	fmt.Fprintln(out)
	if allPass {
		fmt.Fprintln(out, "All checks passed!")
		return 0
	}
	fmt.Fprintln(out, "Some checks failed. See details above.")
	return 1
}

func confirm(env *Env, r *bufio.Reader, prompt string) bool {
	fmt.Fprintf(env.Out, "%s [y/n]: ", prompt)
	answer, _ := r.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

func checkStore(ctx context.Context, env *Env, _ *bufio.Reader) bool {
	cards, err := env.Store.Load(ctx)
	if err != nil {
		fmt.Fprintf(env.Out, "  FAIL: cannot load cards: %v\n", err)
		return false
	}
	if len(cards) == 0 {
		fmt.Fprintln(env.Out, "  WARN: no saved cards (run: easybingo generate --save)")
		return true
	}
	fmt.Fprintf(env.Out, "  PASS: %d card(s) loaded\n", len(cards))
	return true
}

func checkHotkey(ctx context.Context, env *Env, _ *bufio.Reader) bool {
	if env.HotkeyInfo != nil {
		info, err := env.HotkeyInfo()
		if err != nil {
			fmt.Fprintf(env.Out, "  FAIL: %v\n", err)
			return false
		}
		fmt.Fprintf(env.Out, "  %s\n", info)
	}
	fmt.Fprintln(env.Out, "Press Ctrl+Shift+Space...")

	hk := env.Hotkey
	if err := hk.Register(); err != nil {
		fmt.Fprintf(env.Out, "  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Pressed():
		fmt.Fprintln(env.Out, "  PASS: hotkey detected")
		return true
	case <-time.After(10 * time.Second):
		fmt.Fprintln(env.Out, "  FAIL: timeout waiting for hotkey")
		return false
	case <-ctx.Done():
		fmt.Fprintln(env.Out, "  FAIL: interrupted")
		return false
	}
}

type heard struct {
	text string
	n    int
	ok   bool
}

func checkRecognition(ctx context.Context, env *Env, r *bufio.Reader) bool {
	fmt.Fprintf(env.Out, "Say a number between 1 and 90 (listening for %s)...\n", env.Listen)

	results := make(chan heard, 8)
	failed := make(chan error, 1)
	sess, err := env.Recognizer.Start(recognizer.Config{Language: locale.New(env.Locale).Tag()}, recognizer.Handlers{
		OnResult: func(text string, final bool) {
			if !final {
				return
			}
			n, ok := listen.ExtractNumber(text)
			select {
			case results <- heard{text, n, ok}:
			default:
			}
		},
		OnError: func(kind recognizer.ErrorKind, err error) {
			select {
			case failed <- fmt.Errorf("%s: %w", kind, err):
			default:
			}
		},
	})
	if err != nil {
		fmt.Fprintf(env.Out, "  FAIL: cannot start recognition: %v\n", err)
		return false
	}
	defer func() {
		sess.ClearHandlers()
		sess.Stop()
	}()

	timeout := time.After(env.Listen)
	for {
		select {
		case h := <-results:
			fmt.Fprintf(env.Out, "  Heard: %q\n", h.text)
			if !h.ok {
				fmt.Fprintln(env.Out, "  (no number between 1 and 90, try again)")
				continue
			}
			if confirm(env, r, fmt.Sprintf("Did you say %d?", h.n)) {
				fmt.Fprintln(env.Out, "  PASS: recognition verified by user")
				return true
			}
			fmt.Fprintln(env.Out, "  FAIL: recognition not confirmed")
			return false
		case err := <-failed:
			fmt.Fprintf(env.Out, "  FAIL: recognition error: %v\n", err)
			return false
		case <-timeout:
			fmt.Fprintln(env.Out, "  FAIL: no number heard")
			return false
		case <-ctx.Done():
			fmt.Fprintln(env.Out, "  FAIL: interrupted")
			return false
		}
	}
}

func checkSpeech(ctx context.Context, env *Env, r *bufio.Reader) bool {
	loc := locale.New(env.Locale)
	msg := loc.WinMessage(0, win.Event{Kind: win.Terno, Row: 0})
	fmt.Fprintf(env.Out, "Speaking %q with %s...\n", msg, env.Speaker.Name())

	sctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := env.Speaker.Say(sctx, msg, loc.Tag()); err != nil {
		fmt.Fprintf(env.Out, "  FAIL: speech error: %v\n", err)
		return false
	}
	if confirm(env, r, "Did you hear it?") {
		fmt.Fprintln(env.Out, "  PASS: speech verified by user")
		return true
	}
	fmt.Fprintln(env.Out, "  FAIL: speech not confirmed")
	return false
}
