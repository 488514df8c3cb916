//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// Set up crash logging early, before any CGO code runs
	initCrashLog()

	// The global hotkey needs the OS main thread on macOS.
	mainthread.Init(Execute)
}
