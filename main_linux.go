//go:build linux

package main

func main() {
	// Set up crash logging early, before any CGO code runs
	initCrashLog()
	Execute()
}
