package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"easybingo/log"
)

// initCrashLog sends fatal runtime output to crash_log.txt in the log
// directory. Flags are not parsed yet, so only EASYBINGO_LOG_PATH and the OS
// default are considered.
func initCrashLog() {
	dir, err := log.ResolveDir("")
	if err != nil {
		return
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return
	}
	f, err := os.OpenFile(filepath.Join(dir, "crash_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(f, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(f, debug.CrashOptions{})
}

// setupLogging points the log package at the configured directory and opens
// the log files. Failures are reported but not fatal.
func setupLogging(flagPath string) {
	dir, err := log.ResolveDir(flagPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to resolve log directory: %v\n", err)
		return
	}
	log.SetDir(dir)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
}
