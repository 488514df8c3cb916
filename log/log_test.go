package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/mylog")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/mylog" {
		t.Errorf("got %q, want /tmp/mylog", got)
	}
}

func TestResolveDirFlagRelative(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(wd, "logs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv("EASYBINGO_LOG_PATH", "/tmp/easybingo-env-log")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/easybingo-env-log" {
		t.Errorf("got %q, want /tmp/easybingo-env-log", got)
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv("EASYBINGO_LOG_PATH", "")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "easybingo") {
		t.Errorf("default dir %q should be under easybingo", got)
	}
}

func TestInitCreatesFiles(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{DiagFile, CallsFile} {
		path := filepath.Join(tmp, name)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}
}

func TestCallsLog(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	SessionStart("deepgram", "en-US", 2)
	Number(42, "voice")
	Win(1, "Terno", 2)
	Win(2, "Bingo", 0)
	SessionEnd(1, 2)

	data, err := os.ReadFile(filepath.Join(tmp, CallsFile))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5: %q", len(lines), data)
	}
	for i, want := range []string{
		"session_start\t2 cards",
		"number\t42\tvoice",
		"win\tcard 1\tTerno\trow 2",
		"win\tcard 2\tBingo",
		"session_end\t1 numbers\t2 wins",
	} {
		if !strings.HasSuffix(lines[i], want) {
			t.Errorf("line %d = %q, want suffix %q", i, lines[i], want)
		}
	}

	diag, err := os.ReadFile(filepath.Join(tmp, DiagFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(diag), "number=42") {
		t.Errorf("diagnostics log missing number field: %q", diag)
	}
}

func TestNoopBeforeInit(t *testing.T) {
	tmp := setupLogDir(t)

	Info("ignored")
	Number(7, "manual")
	ListenState("listening")

	if _, err := os.Stat(filepath.Join(tmp, CallsFile)); !os.IsNotExist(err) {
		t.Errorf("calls log should not exist before Init, stat err = %v", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Close()
	Close() // should not panic
}
