// Package shutdown turns the platform's termination signals into a context.
package shutdown

import (
	"context"
	"os"
	"os/signal"
)

// Context is cancelled when the process receives an interrupt or, where the
// platform has one, a termination signal.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

func Notify(ch chan os.Signal) {
	signal.Notify(ch, signals...)
}
