//go:build !windows

package doctor

import (
	"os/exec"
)

// resetTerminal undoes raw mode left behind by hotkey or audio backends.
func resetTerminal() {
	exec.Command("stty", "sane").Run()
}
