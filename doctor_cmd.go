package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"easybingo/doctor"
	"easybingo/hotkey"
	"easybingo/log"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the card store, hotkey, microphone and voice",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func init() {
	f := doctorCmd.Flags()
	f.String("recognizer", "", "speech recognizer: deepgram or none")
	f.String("device", "", "use named microphone device")
	f.String("speech", "", "announcement voice: espeak, aura or none")
	f.String("espeak-cmd", "", "espeak-compatible command")
	f.Bool("hotkey", false, "also check the global hotkey")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogPath)
	defer log.Close()

	ctx := cmd.Context()
	env := doctor.Env{
		In:          cmd.InOrStdin(),
		Out:         cmd.OutOrStdout(),
		Speaker:     newSpeaker(cfg),
		Locale:      cfg.Locale,
		Interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Warnf("doctor: open store: %v", err)
	} else {
		defer closeStore()
		env.Store = st
	}

	if cfg.Recognizer != "none" {
		rec, closeRec := newRecognizer(cfg)
		defer closeRec()
		env.Recognizer = rec
	}
	if cfg.Hotkey {
		env.Hotkey = hotkey.New()
		env.HotkeyInfo = hotkey.Diagnose
	}

	if doctor.Run(ctx, env) != 0 {
		return errors.New("some checks failed")
	}
	return nil
}
