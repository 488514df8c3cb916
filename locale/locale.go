// Package locale holds the message catalogs and formats win announcements
// in the session's language.
package locale

import (
	"embed"
	"fmt"
	"path"
	"strconv"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"easybingo/listen"
	"easybingo/win"
)

//go:embed locales/*.yaml
var catalogs embed.FS

// Default is used when no supported locale matches.
const Default = "en-US"

// Supported lists the locales with a catalog, in display order.
var Supported = []string{"en-US", "fr-FR"}

var matcher = language.NewMatcher([]language.Tag{
	language.MustParse("en-US"),
	language.MustParse("fr-FR"),
})

// Match returns the supported locale closest to tag and whether the match
// was at least a language match.
func Match(tag string) (string, bool) {
	t, err := language.Parse(tag)
	if err != nil {
		return Default, false
	}
	_, i, conf := matcher.Match(t)
	if conf == language.No {
		return Default, false
	}
	return Supported[i], true
}

var bundle *goi18n.Bundle

func init() {
	b, err := newBundle()
	if err != nil {
		panic(fmt.Sprintf("locale: embedded catalogs: %v", err))
	}
	bundle = b
}

func newBundle() (*goi18n.Bundle, error) {
	b := goi18n.NewBundle(language.MustParse(Default))
	b.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)
	for _, tag := range Supported {
		if _, err := b.LoadMessageFileFS(catalogs, path.Join("locales", tag+".yaml")); err != nil {
			return nil, err
		}
	}
	return b, nil
}

type Localizer struct {
	tag string
	l   *goi18n.Localizer
}

// New returns a localizer for the supported locale closest to tag.
func New(tag string) *Localizer {
	matched, _ := Match(tag)
	return &Localizer{tag: matched, l: goi18n.NewLocalizer(bundle, matched)}
}

// Tag is the resolved locale, e.g. "fr-FR".
func (l *Localizer) Tag() string { return l.tag }

// T looks up id, filling the template with data. A missing message yields id.
func (l *Localizer) T(id string, data map[string]any) string {
	s, err := l.l.Localize(&goi18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil {
		return id
	}
	return s
}

func (l *Localizer) WinKind(k win.Kind) string {
	switch k {
	case win.Terno:
		return l.T("win.terno", nil)
	case win.Quine:
		return l.T("win.quine", nil)
	case win.Bingo:
		return l.T("win.bingo", nil)
	default:
		return k.String()
	}
}

// WinMessage renders "Card n: Kind (Row r)!" with 1-based card and row.
func (l *Localizer) WinMessage(cardIndex int, ev win.Event) string {
	data := map[string]any{
		"Card": strconv.Itoa(cardIndex + 1),
		"Kind": l.WinKind(ev.Kind),
	}
	if ev.Row == win.NoRow {
		return l.T("win.message_bingo", data)
	}
	data["Row"] = strconv.Itoa(ev.Row + 1)
	return l.T("win.message", data)
}

// Failure renders the operator message for a recognition failure.
func (l *Localizer) Failure(f listen.Failure) string {
	detail := ""
	if f.Err != nil {
		detail = f.Err.Error()
	}
	data := map[string]any{"Detail": detail}
	switch f.Kind {
	case listen.UnsupportedCapability:
		return l.T("failure.unsupported", data)
	case listen.PermissionDenied:
		return l.T("failure.permission", data)
	case listen.TransientRecognition:
		return l.T("failure.transient", data)
	default:
		return l.T("failure.start", data)
	}
}
