//go:build integration

package test_test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var testBinary string

// Row 1 is 5 12 34 44 85; row 2 is 15 21 56 63 88.
const cardsJSON = `[[[5,12,null,34,44,null,null,null,85],` +
	`[null,15,21,null,null,56,63,null,88],` +
	`[7,null,25,null,47,null,null,71,90]]]`

func TestMain(m *testing.M) {
	testBinary = os.Getenv("EASYBINGO_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "EASYBINGO_TEST_BIN not set; build the binary and point at it")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

type run struct {
	out    string
	logDir string
}

func runBingo(t *testing.T, stdin string, args ...string) run {
	t.Helper()
	cfgDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(cfgDir, "bingo-cards.json"), []byte(cardsJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	logDir := t.TempDir()
	cmdArgs := append([]string{"play", "--test", "--log-path", logDir}, args...)

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), "EASYBINGO_CONFIG_DIR="+cfgDir)

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("easybingo exited with error: %v\noutput: %s", err, out)
	}
	return run{out: string(out), logDir: logDir}
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func requireLine(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Errorf("missing %q in output:\n%s", want, out)
	}
}

func TestManualTerno(t *testing.T) {
	r := runBingo(t, cmds("NUM 5", "NUM 12", "NUM 34", "QUIT"))
	requireLine(t, r.out, "NUMBER 34 manual")
	requireLine(t, r.out, "WIN card=1 kind=terno row=1 Card 1: Terno (Row 1)!")
	requireLine(t, r.out, "SPEAK en-US Card 1: Terno (Row 1)!")

	calls := readLog(t, r.logDir, "calls_log.txt")
	if !strings.Contains(calls, "win\tcard 1\tTerno\trow 1") {
		t.Errorf("expected terno in calls log, got:\n%s", calls)
	}
	if !strings.Contains(calls, "session_end\t3 numbers\t1 wins") {
		t.Errorf("expected session_end in calls log, got:\n%s", calls)
	}
}

func TestDuplicateAndOutOfRange(t *testing.T) {
	r := runBingo(t, cmds("NUM 5", "NUM 5", "NUM 91", "QUIT"))
	requireLine(t, r.out, "DUPLICATE 5")
	requireLine(t, r.out, "ERROR number must be between 1 and 90")
}

func TestVoiceQuine(t *testing.T) {
	r := runBingo(t, cmds(
		"TOGGLE",
		"SAY five", "SAY 5", "SAY number 12", "SAY 34", "SAY 44", "SAY 85",
		"TOGGLE", "QUIT"))
	requireLine(t, r.out, "STATE listening")
	requireLine(t, r.out, "HEARD five")
	requireLine(t, r.out, "NUMBER 12 voice")
	requireLine(t, r.out, "WIN card=1 kind=quine row=1 Card 1: Quine (Row 1)!")
	requireLine(t, r.out, "STATE idle")
}

func TestPermissionFault(t *testing.T) {
	r := runBingo(t, cmds("TOGGLE", "FAIL permission denied", "SAY 5", "QUIT"))
	requireLine(t, r.out, "STATE faulted")
	requireLine(t, r.out, "FAILURE permission-denied")
	requireLine(t, r.out, "ERROR no recognition session running")
}

func TestFrenchAnnouncements(t *testing.T) {
	r := runBingo(t, cmds("NUM 15", "NUM 21", "NUM 56", "QUIT"), "--locale", "fr")
	requireLine(t, r.out, "SPEAK fr-FR Carton 1 : Terne (ligne 2) !")
}

func TestDiagnosticsLog(t *testing.T) {
	r := runBingo(t, cmds("NUM 7", "QUIT"))
	diag := readLog(t, r.logDir, "diagnostics_log.txt")
	for _, want := range []string{"session_start", `"number":7`, "session_end"} {
		if !strings.Contains(diag, want) {
			t.Errorf("expected %s in diagnostics", want)
		}
	}
}
