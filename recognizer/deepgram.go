package recognizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/text/language"

	"easybingo/audio"
	"easybingo/log"
)

const (
	deepgramEndpoint = "wss://api.deepgram.com/v1/listen"
	deepgramModel    = "nova-3"

	streamChunkMs    = 100
	streamChunkBytes = audio.BytesPerMs * streamChunkMs
	streamQueueLen   = 64
	dialTimeout      = 10 * time.Second
	closeTimeout     = 2 * time.Second
)

// Deepgram streams microphone audio to Deepgram's live endpoint. Like a
// browser recognizer, a session ends by itself after a stretch of silence or
// once it has run for the maximum duration.
type Deepgram struct {
	apiKey     string
	endpoint   string
	model      string
	audio      audio.Context
	device     *audio.DeviceInfo
	silenceEnd time.Duration
	maxSession time.Duration
	newVAD     func() (voiceDetector, error)
	dialer     *websocket.Dialer
}

type DeepgramOption func(*Deepgram)

// WithEndpoint overrides the websocket URL.
func WithEndpoint(u string) DeepgramOption { return func(d *Deepgram) { d.endpoint = u } }

func WithModel(m string) DeepgramOption { return func(d *Deepgram) { d.model = m } }

func WithDevice(dev *audio.DeviceInfo) DeepgramOption { return func(d *Deepgram) { d.device = dev } }

// WithSilenceEnd ends a session after dur without voice. Zero disables it.
func WithSilenceEnd(dur time.Duration) DeepgramOption {
	return func(d *Deepgram) { d.silenceEnd = dur }
}

// WithMaxSession ends a session after dur. Zero disables it.
func WithMaxSession(dur time.Duration) DeepgramOption {
	return func(d *Deepgram) { d.maxSession = dur }
}

// NewDeepgram returns a recognizer reading from ac. A nil ac makes every
// Start fail with ErrUnsupported.
func NewDeepgram(apiKey string, ac audio.Context, opts ...DeepgramOption) *Deepgram {
	d := &Deepgram{
		apiKey:     apiKey,
		endpoint:   deepgramEndpoint,
		model:      deepgramModel,
		audio:      ac,
		silenceEnd: 8 * time.Second,
		maxSession: 60 * time.Second,
		newVAD:     newVADProcessor,
		dialer:     &websocket.Dialer{HandshakeTimeout: dialTimeout, Proxy: http.ProxyFromEnvironment},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *Deepgram) Name() string { return "deepgram" }

func (d *Deepgram) Start(cfg Config, h Handlers) (Session, error) {
	if d.audio == nil {
		return nil, fmt.Errorf("deepgram: no audio input: %w", ErrUnsupported)
	}
	if d.apiKey == "" {
		return nil, errors.New("deepgram: missing API key")
	}
	acfg := audio.DefaultConfig()
	acfg.ChunkBytes = streamChunkBytes
	capture, err := d.audio.NewCapture(d.device, acfg)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}

	var vad voiceDetector
	if d.silenceEnd > 0 {
		if vad, err = d.newVAD(); err != nil {
			log.Warnf("vad unavailable, silence end disabled: %v", err)
			vad = nil
		}
	}

	s := &deepgramSession{
		d:        d,
		cfg:      cfg,
		handlers: newHandlerBox(h),
		capture:  capture,
		vad:      vad,
		audioCh:  make(chan []byte, streamQueueLen),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// deepgramLanguage maps a locale to the language parameter Deepgram
// accepts: regional English stays as is, other languages use their base.
func deepgramLanguage(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return ""
	}
	base, _ := t.Base()
	if base.String() == "en" {
		return t.String()
	}
	return base.String()
}

func (d *Deepgram) dial(cfg Config) (*websocket.Conn, error) {
	endpoint, err := url.Parse(d.endpoint)
	if err != nil {
		return nil, err
	}
	q := endpoint.Query()
	q.Set("model", d.model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(audio.SampleRate))
	q.Set("channels", strconv.Itoa(audio.Channels))
	q.Set("numerals", "true")
	q.Set("interim_results", strconv.FormatBool(cfg.Interim))
	if lang := deepgramLanguage(cfg.Language); lang != "" {
		q.Set("language", lang)
	}
	endpoint.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("Authorization", "Token "+d.apiKey)

	conn, resp, err := d.dialer.Dial(endpoint.String(), headers)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("deepgram: %s: %w", resp.Status, ErrPermission)
		}
		return nil, fmt.Errorf("deepgram dial: %w", err)
	}
	return conn, nil
}

type deepgramResponse struct {
	Type        string `json:"type"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`
	Channel     struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

type deepgramSession struct {
	d        *Deepgram
	cfg      Config
	handlers *handlerBox
	capture  audio.CaptureDevice
	vad      voiceDetector

	audioCh  chan []byte
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	closing  atomic.Bool

	feedMu  sync.Mutex
	feedBuf []byte
	dropped int

	started   time.Time
	connected time.Time
	sent      int
	recvMsgs  atomic.Int64
	recvFinal atomic.Int64
}

func (s *deepgramSession) ClearHandlers() { s.handlers.clear() }

func (s *deepgramSession) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// feed runs on the capture goroutine. It never blocks; chunks that do not fit
// the queue are dropped.
func (s *deepgramSession) feed(pcm []byte, _ uint32) {
	if s.vad != nil {
		s.vad.Process(pcm)
	}
	s.feedMu.Lock()
	defer s.feedMu.Unlock()
	s.feedBuf = append(s.feedBuf, pcm...)
	for len(s.feedBuf) >= streamChunkBytes {
		chunk := make([]byte, streamChunkBytes)
		copy(chunk, s.feedBuf[:streamChunkBytes])
		s.feedBuf = s.feedBuf[streamChunkBytes:]
		select {
		case s.audioCh <- chunk:
		default:
			s.dropped++
		}
	}
}

func (s *deepgramSession) run() {
	defer close(s.done)
	defer s.handlers.end()

	s.started = time.Now()
	conn, err := s.d.dial(s.cfg)
	s.connected = time.Now()
	if err != nil {
		s.capture.Close()
		s.handlers.error(KindOf(err), err)
		return
	}
	select {
	case <-s.stop:
		conn.Close()
		s.capture.Close()
		return
	default:
	}

	s.capture.SetCallback(s.feed)
	if err := s.capture.Start(); err != nil {
		conn.Close()
		s.capture.ClearCallback()
		s.capture.Close()
		s.handlers.error(captureFailure(err))
		return
	}
	s.handlers.start()

	recvDone := make(chan struct{})
	go s.receive(conn, recvDone)

	defer s.shutdown(conn, recvDone)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	var maxC <-chan time.Time
	if s.d.maxSession > 0 {
		t := time.NewTimer(s.d.maxSession)
		defer t.Stop()
		maxC = t.C
	}
	var monitor *silenceMonitor
	if s.vad != nil {
		monitor = newSilenceMonitor(s.d.silenceEnd)
	}

	for {
		select {
		case <-s.stop:
			return
		case <-recvDone:
			return
		case <-maxC:
			log.Info("recognition session reached max duration")
			return
		case chunk := <-s.audioCh:
			if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				s.handlers.error(ErrorNetwork, fmt.Errorf("deepgram send: %w", err))
				return
			}
			s.sent++
		case <-ticker.C:
			if monitor == nil {
				continue
			}
			if logSilence(monitor.Tick(s.vad.HasSpeechTick())) {
				return
			}
		}
	}
}

// captureFailure classifies a microphone that would not open. Only a refusal
// stops listening; a busy or missing device is retried.
func captureFailure(err error) (ErrorKind, error) {
	if errors.Is(err, audio.ErrAccessDenied) {
		return ErrorPermission, fmt.Errorf("microphone: %w: %w", ErrPermission, err)
	}
	return ErrorOther, fmt.Errorf("microphone: %w", err)
}

// logSilence records a silence transition and reports whether the session
// should end.
func logSilence(ev silenceEvent) bool {
	switch ev {
	case silenceQuiet:
		log.Info("caller quiet")
	case silenceResumed:
		log.Info("caller speaking again")
	case silenceEnd:
		log.Info("recognition session ended on silence")
		return true
	}
	return false
}

// shutdown asks Deepgram to flush, closes the socket and releases the
// microphone. OnEnd fires after it returns.
func (s *deepgramSession) shutdown(conn *websocket.Conn, recvDone <-chan struct{}) {
	s.capture.ClearCallback()
	s.capture.Stop()
	s.capture.Close()

	s.closing.Store(true)
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	select {
	case <-recvDone:
	case <-time.After(closeTimeout):
		log.Warn("deepgram receiver drain timeout")
	}
	conn.Close()

	s.feedMu.Lock()
	dropped := s.dropped
	s.feedMu.Unlock()
	if dropped > 0 {
		log.Warnf("deepgram dropped %d audio chunks", dropped)
	}

	sentBytes := s.sent * streamChunkBytes
	log.StreamMetrics(log.StreamMetricsData{
		ConnectMs:    float64(s.connected.Sub(s.started).Microseconds()) / 1000,
		TotalMs:      float64(time.Since(s.started).Microseconds()) / 1000,
		AudioS:       float64(sentBytes) / float64(audio.BytesPerMs) / 1000,
		SentChunks:   s.sent,
		SentKB:       float64(sentBytes) / 1024,
		RecvMessages: int(s.recvMsgs.Load()),
		RecvFinal:    int(s.recvFinal.Load()),
		Dropped:      dropped,
	})
}

func (s *deepgramSession) receive(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if s.closing.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return
			}
			s.handlers.error(ErrorNetwork, fmt.Errorf("deepgram recv: %w", err))
			return
		}

		s.recvMsgs.Add(1)
		var resp deepgramResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			log.Warnf("deepgram: bad message: %v", err)
			continue
		}
		if resp.Type != "Results" || len(resp.Channel.Alternatives) == 0 {
			continue
		}
		transcript := strings.TrimSpace(resp.Channel.Alternatives[0].Transcript)
		if transcript == "" {
			continue
		}
		final := resp.IsFinal || resp.SpeechFinal
		if final {
			s.recvFinal.Add(1)
		}
		if !final && !s.cfg.Interim {
			continue
		}
		s.handlers.result(transcript, final)
	}
}
