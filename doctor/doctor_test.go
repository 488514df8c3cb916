package doctor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easybingo/card"
	"easybingo/hotkey"
	"easybingo/recognizer"
	"easybingo/speech"
	"easybingo/store"
)

func savedStore(t *testing.T) store.Store {
	t.Helper()
	s := store.NewFile(t.TempDir())
	require.NoError(t, s.Save(context.Background(), []card.Card{card.Generate()}))
	return s
}

func TestAllChecksPass(t *testing.T) {
	hk := hotkey.NewFake()
	hk.SimPress()
	rec := recognizer.NewFake()
	sp := speech.NewFake()
	var out bytes.Buffer

	go func() {
		for rec.Current() == nil {
			time.Sleep(time.Millisecond)
		}
		rec.Current().Say("hello")
		rec.Current().Say("forty two 42")
	}()

	code := Run(context.Background(), Env{
		In:         strings.NewReader("y\ny\n"),
		Out:        &out,
		Hotkey:     hk,
		Recognizer: rec,
		Speaker:    sp,
		Store:      savedStore(t),
		Locale:     "en-US",
		Listen:     5 * time.Second,
	})

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "PASS: 1 card(s) loaded")
	assert.Contains(t, out.String(), "PASS: hotkey detected")
	assert.Contains(t, out.String(), "Did you say 42?")
	assert.Contains(t, out.String(), "PASS: speech verified by user")
	assert.Equal(t, []string{"en-US|Card 1: Terno (Row 1)!"}, sp.Said())

	require.Equal(t, 1, rec.Starts())
	assert.True(t, rec.Current().Stopped())
}

func TestNothingConfiguredSkips(t *testing.T) {
	var out bytes.Buffer
	code := Run(context.Background(), Env{In: strings.NewReader(""), Out: &out})
	assert.Equal(t, 0, code)
	assert.Equal(t, 4, strings.Count(out.String(), "SKIP"))
}

func TestRecognitionStartFails(t *testing.T) {
	rec := recognizer.NewFake()
	rec.FailNextStart(errors.New("no mic"))
	var out bytes.Buffer
	code := Run(context.Background(), Env{In: strings.NewReader(""), Out: &out, Recognizer: rec})
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "FAIL: cannot start recognition: no mic")
}

func TestRecognitionTimesOut(t *testing.T) {
	var out bytes.Buffer
	code := Run(context.Background(), Env{
		In:         strings.NewReader(""),
		Out:        &out,
		Recognizer: recognizer.NewFake(),
		Listen:     20 * time.Millisecond,
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "FAIL: no number heard")
}

func TestSpeechNotConfirmed(t *testing.T) {
	var out bytes.Buffer
	code := Run(context.Background(), Env{
		In:      strings.NewReader("n\n"),
		Out:     &out,
		Speaker: speech.NewFake(),
		Locale:  "fr-FR",
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Carton 1 : Terne (ligne 1) !")
	assert.Contains(t, out.String(), "FAIL: speech not confirmed")
}

func TestCorruptStoreFails(t *testing.T) {
	dir := t.TempDir()
	s := store.NewFile(dir)
	require.NoError(t, writeFile(s.Path(), "{"))
	var out bytes.Buffer
	code := Run(context.Background(), Env{In: strings.NewReader(""), Out: &out, Store: s})
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "FAIL: cannot load cards")
}

func writeFile(path, body string) error {
	return os.WriteFile(path, []byte(body), 0o644)
}

func TestHotkeyInfoPrintedBeforePress(t *testing.T) {
	hk := hotkey.NewFake()
	hk.SimPress()
	var out bytes.Buffer
	code := Run(context.Background(), Env{
		In:         strings.NewReader(""),
		Out:        &out,
		Hotkey:     hk,
		HotkeyInfo: func() (string, error) { return "1 of 2 keyboard(s) readable: event3", nil },
	})
	assert.Equal(t, 0, code)
	info := strings.Index(out.String(), "1 of 2 keyboard(s) readable: event3")
	press := strings.Index(out.String(), "Press Ctrl+Shift+Space")
	require.GreaterOrEqual(t, info, 0)
	assert.Less(t, info, press)
}

func TestHotkeyInfoFailureSkipsPress(t *testing.T) {
	var out bytes.Buffer
	code := Run(context.Background(), Env{
		In:         strings.NewReader(""),
		Out:        &out,
		Hotkey:     hotkey.NewFake(),
		HotkeyInfo: func() (string, error) { return "", errors.New("no keyboard with ctrl, shift and space found") },
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "FAIL: no keyboard with ctrl, shift and space found")
	assert.NotContains(t, out.String(), "Press Ctrl+Shift+Space")
}
