package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"easybingo/beep"
)

const (
	auraEndpoint   = "https://api.deepgram.com/v1/speak"
	auraSampleRate = 24000
)

// auraVoices picks a voice per language; unknown languages use English.
var auraVoices = map[string]string{
	"en": "aura-2-thalia-en",
	"fr": "aura-2-agathe-fr",
}

// Aura synthesises with Deepgram's text-to-speech API and plays the
// returned PCM locally.
type Aura struct {
	apiKey   string
	endpoint string
	client   *http.Client
	play     func(ctx context.Context, pcm []byte, rate int) error
}

func NewAura(apiKey string) *Aura {
	return &Aura{
		apiKey:   apiKey,
		endpoint: auraEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		play:     beep.PlayPCM,
	}
}

func (a *Aura) Name() string { return "aura" }

func auraVoice(locale string) string {
	lang, _, _ := strings.Cut(strings.ToLower(locale), "-")
	if v, ok := auraVoices[lang]; ok {
		return v
	}
	return auraVoices["en"]
}

func (a *Aura) Say(ctx context.Context, text, locale string) error {
	pcm, err := a.synthesize(ctx, text, locale)
	if err != nil {
		return err
	}
	return a.play(ctx, pcm, auraSampleRate)
}

func (a *Aura) synthesize(ctx context.Context, text, locale string) ([]byte, error) {
	u, err := url.Parse(a.endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("model", auraVoice(locale))
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(auraSampleRate))
	q.Set("container", "none")
	u.RawQuery = q.Encode()

	body, err := json.Marshal(struct {
		Text string `json:"text"`
	}{text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aura request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("aura read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aura: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	return data, nil
}
