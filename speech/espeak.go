package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Espeak runs espeak-ng (or a compatible command) once per utterance.
type Espeak struct {
	Cmd string // defaults to "espeak-ng"
}

func (e Espeak) Name() string { return "espeak" }

// Voice maps a locale tag to an espeak voice name.
func Voice(locale string) string {
	v := strings.ToLower(locale)
	if v == "" {
		return "en-us"
	}
	return v
}

func (e Espeak) Say(ctx context.Context, text, locale string) error {
	cmd := e.Cmd
	if cmd == "" {
		cmd = "espeak-ng"
	}
	c := exec.CommandContext(ctx, cmd, "-v", Voice(locale), text)
	if out, err := c.CombinedOutput(); err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", cmd, err, msg)
		}
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}
