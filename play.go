package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"easybingo/audio"
	"easybingo/beep"
	"easybingo/card"
	"easybingo/config"
	"easybingo/game"
	"easybingo/hotkey"
	"easybingo/log"
	"easybingo/recognizer"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Run a game session with the saved cards",
	Long: `Play opens the session console: called numbers heard on the microphone
(ctrl+t) or typed in are marked on every saved card, and each Terno, Quine
and Bingo is shown and read aloud once.

With --test, or when stdout is not a terminal, the session is driven by
commands on stdin instead (NUM n, TOGGLE, SAY text, END, FAIL kind, SLEEP ms,
WAIT, QUIT).`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	f := playCmd.Flags()
	f.String("recognizer", "", "speech recognizer: deepgram or none")
	f.String("device", "", "use named microphone device")
	f.Bool("setup", false, "select microphone device before starting")
	f.String("speech", "", "announcement voice: espeak, aura or none")
	f.String("espeak-cmd", "", "espeak-compatible command")
	f.Bool("desktop-notify", false, "mirror wins as desktop notifications")
	f.Bool("hotkey", false, "toggle listening with the global Ctrl+Shift+Space")
	f.Duration("silence-end", 0, "end a recognition session after this much silence")
	f.Duration("session-max", 0, "end a recognition session after this long")
	f.Bool("test", false, "headless mode with a scripted recognizer, driven by stdin")
	f.String("profile", "", "enable pprof profiling server (e.g., localhost:6060)")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, _ []string) error {
	testMode, _ := cmd.Flags().GetBool("test")
	setup, _ := cmd.Flags().GetBool("setup")
	profile, _ := cmd.Flags().GetString("profile")

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogPath)
	defer log.Close()

	if profile != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", profile)
			if err := http.ListenAndServe(profile, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	ctx := cmd.Context()
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open card store: %w", err)
	}
	cards, err := st.Load(ctx)
	closeStore()
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		return errors.New(localizer(cfg).T("ui.no_cards", nil))
	}

	if testMode {
		beep.Disable()
		return runHeadless(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cfg, cards, recognizer.NewFake(), nil)
	}

	if setup && cfg.Device == "" {
		if err := pickDevice(cfg); err != nil {
			return err
		}
	}

	rec, closeRec := newRecognizer(cfg)
	defer closeRec()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		beep.Disable()
		synth, closeSynth := newSynth(newSpeaker(cfg))
		defer closeSynth()
		return runHeadless(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cfg, cards, rec, synth)
	}
	return runConsole(ctx, cfg, cards, rec)
}

func pickDevice(cfg *config.Config) error {
	actx, err := audio.NewContext()
	if err != nil {
		return fmt.Errorf("initializing audio: %w", err)
	}
	defer actx.Close()
	dev, err := audio.SelectDevice(actx)
	if err != nil {
		if errors.Is(err, audio.ErrPickCancelled) {
			return err
		}
		log.Warnf("device selection failed: %v", err)
		fmt.Printf("Warning: device selection failed: %v\nFalling back to default device\n", err)
		return nil
	}
	cfg.Device = dev.Name
	return nil
}

func runConsole(ctx context.Context, cfg *config.Config, cards []card.Card, rec recognizer.Recognizer) error {
	go beep.Init()

	synth, closeSynth := newSynth(newSpeaker(cfg))
	defer closeSynth()

	sink := &teaSink{}
	sess, err := game.New(game.Config{
		Cards:      cards,
		Recognizer: rec,
		Synth:      synth,
		Desktop:    newDesktop(cfg),
		Locale:     cfg.Locale,
		Sink:       sink,
		Cues:       game.Beeps{},
	})
	if err != nil {
		return err
	}

	model := newPlayModel(sess, cards, localizer(cfg), paletteFor(cfg.Theme), deviceLineText(cfg), cfg.Hotkey)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	sink.p = p

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Hotkey {
		hk := hotkey.New()
		if err := hk.Register(); err != nil {
			log.Errorf("hotkey register error: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: hotkey unavailable: %v\n", err)
		} else {
			defer hk.Unregister()
			go hotkey.Watch(ctx, hk, hotkey.DefaultDebounce, nil, sess.ToggleListening)
		}
	}

	runErr := make(chan error, 1)
	go func() { runErr <- sess.Run(ctx) }()

	_, tuiErr := p.Run()
	sess.Close()
	<-runErr
	if tuiErr != nil && !errors.Is(tuiErr, tea.ErrProgramKilled) {
		log.Errorf("TUI error: %v", tuiErr)
		return tuiErr
	}
	return nil
}
