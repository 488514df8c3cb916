package main

import (
	"fmt"

	"easybingo/audio"
	"easybingo/config"
	"easybingo/log"
	"easybingo/notify"
	"easybingo/recognizer"
	"easybingo/speech"
)

// newRecognizer builds the configured recognizer. Without an audio backend it
// falls back to Unavailable, so turning the mic on reports the capability as
// missing instead of failing the whole session.
func newRecognizer(cfg *config.Config) (recognizer.Recognizer, func()) {
	if cfg.Recognizer == "none" {
		return recognizer.Unavailable{}, func() {}
	}
	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		return recognizer.Unavailable{}, func() {}
	}

	opts := []recognizer.DeepgramOption{
		recognizer.WithSilenceEnd(cfg.SilenceEnd),
		recognizer.WithMaxSession(cfg.SessionMax),
	}
	if cfg.Device != "" {
		dev, err := audio.FindDevice(actx, cfg.Device)
		if err != nil {
			log.Warnf("device %q: %v, using system default", cfg.Device, err)
		} else {
			log.Info("recording_device: " + dev.Name)
			opts = append(opts, recognizer.WithDevice(dev))
		}
	}
	return recognizer.NewDeepgram(cfg.DeepgramKey, actx, opts...), actx.Close
}

// newSpeaker returns the configured speaker, or nil for none.
func newSpeaker(cfg *config.Config) speech.Speaker {
	switch cfg.Speech {
	case "aura":
		if cfg.DeepgramKey == "" {
			log.Warn("speech=aura needs a Deepgram key, falling back to espeak")
			return speech.Espeak{Cmd: cfg.EspeakCmd}
		}
		return speech.NewAura(cfg.DeepgramKey)
	case "espeak":
		return speech.Espeak{Cmd: cfg.EspeakCmd}
	default:
		return nil
	}
}

// newSynth puts sp behind a queue. The returned func drains and stops it.
func newSynth(sp speech.Speaker) (notify.Synthesizer, func()) {
	if sp == nil {
		return speech.Silent{}, func() {}
	}
	q := speech.NewQueue(sp, speech.DefaultQueueSize)
	return q, q.Close
}

func newDesktop(cfg *config.Config) notify.Notifier {
	if !cfg.DesktopNotify {
		return nil
	}
	return notify.Desktop{}
}

func deviceLineText(cfg *config.Config) string {
	name := "system default"
	suffix := ""
	if cfg.Device != "" {
		name = cfg.Device
		if audio.IsBluetooth(cfg.Device) {
			suffix = " (BT!)"
		}
	}
	return fmt.Sprintf("mic: %s%s", name, suffix)
}
