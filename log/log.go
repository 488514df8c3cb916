package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DiagFile  = "diagnostics_log.txt"
	CallsFile = "calls_log.txt"
)

var (
	diagLog   zerolog.Logger
	diagFile  *os.File
	callsFile *os.File
	logMu     sync.Mutex
	logReady  bool
	pid       int
	dir       string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: --log-path flag or log_path config
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: EASYBINGO_LOG_PATH environment variable
	if envPath := os.Getenv("EASYBINGO_LOG_PATH"); envPath != "" {
		return absolute(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagFile, err = os.OpenFile(filepath.Join(dir, DiagFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	callsFile, err = os.OpenFile(filepath.Join(dir, CallsFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		diagFile = nil
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if callsFile != nil {
		callsFile.Close()
		callsFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// callLine appends one tab-separated line to the calls log.
func callLine(format string, args ...any) {
	logMu.Lock()
	defer logMu.Unlock()
	if callsFile == nil {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, fmt.Sprintf(format, args...))
	callsFile.WriteString(line)
}

// Number records an announced number and where it came from ("voice",
// "manual", "test").
func Number(n int, source string) {
	if !logReady {
		return
	}
	diagLog.Info().Int("number", n).Str("source", source).Msg("number")
	callLine("number\t%d\t%s", n, source)
}

// Win records a win with 1-based card and row. row <= 0 means no row.
func Win(cardNum int, kind string, row int) {
	if !logReady {
		return
	}
	ev := diagLog.Info().Int("card", cardNum).Str("kind", kind)
	if row > 0 {
		ev = ev.Int("row", row)
		callLine("win\tcard %d\t%s\trow %d", cardNum, kind, row)
	} else {
		callLine("win\tcard %d\t%s", cardNum, kind)
	}
	ev.Msg("win")
}

func Heard(text string, final bool) {
	if !logReady {
		return
	}
	diagLog.Info().Str("text", text).Bool("final", final).Msg("heard")
}

func ListenState(state string) {
	if !logReady {
		return
	}
	diagLog.Info().Str("state", state).Msg("listen_state")
}

type StreamMetricsData struct {
	ConnectMs    float64
	TotalMs      float64
	AudioS       float64
	SentChunks   int
	SentKB       float64
	RecvMessages int
	RecvFinal    int
	Dropped      int
}

func StreamMetrics(m StreamMetricsData) {
	if !logReady {
		return
	}
	diagLog.Info().
		Float64("connect_ms", m.ConnectMs).
		Float64("total_ms", m.TotalMs).
		Float64("audio_s", m.AudioS).
		Int("sent_chunks", m.SentChunks).
		Float64("sent_kb", m.SentKB).
		Int("recv_messages", m.RecvMessages).
		Int("recv_final", m.RecvFinal).
		Int("dropped", m.Dropped).
		Msg("stream_recognition")
}

func SessionStart(recognizer, locale string, cards int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("recognizer", recognizer).
		Str("locale", locale).
		Int("cards", cards).
		Msg("session_start")
	callLine("session_start\t%d cards", cards)
}

func SessionEnd(announced, wins int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("announced", announced).
		Int("wins", wins).
		Msg("session_end")
	callLine("session_end\t%d numbers\t%d wins", announced, wins)
}
