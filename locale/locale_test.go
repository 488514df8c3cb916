package locale

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"easybingo/listen"
	"easybingo/win"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"en-US", "en-US", true},
		{"fr-FR", "fr-FR", true},
		{"fr", "fr-FR", true},
		{"fr-CA", "fr-FR", true},
		{"en-GB", "en-US", true},
		{"", Default, false},
		{"!!", Default, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Match(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestWinMessageEnglish(t *testing.T) {
	l := New("en-US")
	assert.Equal(t, "Card 1: Terno (Row 1)!", l.WinMessage(0, win.Event{Kind: win.Terno, Row: 0}))
	assert.Equal(t, "Card 3: Quine (Row 2)!", l.WinMessage(2, win.Event{Kind: win.Quine, Row: 1}))
	assert.Equal(t, "Card 2: Bingo!", l.WinMessage(1, win.Event{Kind: win.Bingo, Row: win.NoRow}))
}

func TestWinMessageFrench(t *testing.T) {
	l := New("fr-FR")
	assert.Equal(t, "fr-FR", l.Tag())
	assert.Equal(t, "Carton 1 : Terne (ligne 3) !", l.WinMessage(0, win.Event{Kind: win.Terno, Row: 2}))
	assert.Equal(t, "Carton 4 : Carton plein !", l.WinMessage(3, win.Event{Kind: win.Bingo, Row: win.NoRow}))
}

func TestUnknownLocaleFallsBack(t *testing.T) {
	l := New("xx")
	assert.Equal(t, Default, l.Tag())
	assert.Equal(t, "Quine", l.WinKind(win.Quine))
}

func TestMissingMessageReturnsID(t *testing.T) {
	assert.Equal(t, "no.such.message", New("en-US").T("no.such.message", nil))
}

func TestEveryMessageTranslated(t *testing.T) {
	en, fr := New("en-US"), New("fr-FR")
	ids := []string{
		"win.terno", "win.quine", "win.bingo",
		"ui.title", "ui.none_yet", "ui.mic_on", "ui.mic_off", "ui.mic_faulted",
		"ui.manual_prompt", "ui.help", "ui.no_cards", "ui.copied", "ui.copy_failed",
		"failure.unsupported", "failure.permission",
	}
	for _, id := range ids {
		assert.NotEqual(t, id, en.T(id, nil), "en-US missing %s", id)
		assert.NotEqual(t, id, fr.T(id, nil), "fr-FR missing %s", id)
	}
}

func TestFailureMessages(t *testing.T) {
	l := New("en-US")
	assert.Equal(t, "Speech recognition is not available on this system.",
		l.Failure(listen.Failure{Kind: listen.UnsupportedCapability}))
	assert.Equal(t, "Didn't catch that (network down).",
		l.Failure(listen.Failure{Kind: listen.TransientRecognition, Err: errors.New("network down")}))
	assert.Equal(t, "Could not start listening: busy",
		l.Failure(listen.Failure{Kind: listen.StartFailure, Err: errors.New("busy")}))
	assert.Contains(t, New("fr-FR").Failure(listen.Failure{Kind: listen.PermissionDenied}), "micro")
}

func TestTemplateData(t *testing.T) {
	assert.Equal(t, "Last: 42", New("en-US").T("ui.last", map[string]any{"Number": 42}))
	assert.Equal(t, "Dernier : 42", New("fr-FR").T("ui.last", map[string]any{"Number": 42}))
}
