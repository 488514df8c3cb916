// Package recognizer turns microphone audio into transcripts. A session is
// one recognition attempt; it may end on its own at any time and callers
// restart it if they still want to listen.
package recognizer

import (
	"errors"
	"sync"
)

var (
	// ErrUnsupported means the platform has no recognition capability.
	ErrUnsupported = errors.New("speech recognition unsupported")
	// ErrPermission means the microphone or the service refused access.
	ErrPermission = errors.New("recognition permission denied")
)

type ErrorKind int

const (
	ErrorOther ErrorKind = iota
	ErrorPermission
	ErrorNetwork
	ErrorNoSpeech
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorPermission:
		return "permission"
	case ErrorNetwork:
		return "network"
	case ErrorNoSpeech:
		return "no-speech"
	default:
		return "other"
	}
}

// KindOf classifies err for OnError.
func KindOf(err error) ErrorKind {
	if errors.Is(err, ErrPermission) {
		return ErrorPermission
	}
	return ErrorNetwork
}

type Config struct {
	Language string // BCP 47 tag, e.g. "fr-FR"
	Interim  bool   // deliver non-final transcripts too
}

// Handlers may be invoked from any goroutine. Nil fields are skipped.
type Handlers struct {
	OnStart  func()
	OnEnd    func()
	OnError  func(kind ErrorKind, err error)
	OnResult func(transcript string, final bool)
}

// Session is one running recognition attempt. Stop is asynchronous; OnEnd
// follows once the attempt has wound down, unless handlers were cleared.
type Session interface {
	ClearHandlers()
	Stop()
}

type Recognizer interface {
	Name() string
	Start(cfg Config, h Handlers) (Session, error)
}

// handlerBox guards a session's handlers so ClearHandlers can race with
// callbacks from capture and network goroutines.
type handlerBox struct {
	mu      sync.Mutex
	h       Handlers
	endOnce sync.Once
}

func newHandlerBox(h Handlers) *handlerBox {
	return &handlerBox{h: h}
}

func (b *handlerBox) get() Handlers {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.h
}

func (b *handlerBox) clear() {
	b.mu.Lock()
	b.h = Handlers{}
	b.mu.Unlock()
}

func (b *handlerBox) start() {
	if f := b.get().OnStart; f != nil {
		f()
	}
}

// end fires OnEnd at most once per session.
func (b *handlerBox) end() {
	b.endOnce.Do(func() {
		if f := b.get().OnEnd; f != nil {
			f()
		}
	})
}

func (b *handlerBox) error(kind ErrorKind, err error) {
	if f := b.get().OnError; f != nil {
		f(kind, err)
	}
}

func (b *handlerBox) result(transcript string, final bool) {
	if f := b.get().OnResult; f != nil {
		f(transcript, final)
	}
}

// Unavailable is used when no recognizer is configured. Every Start fails
// with ErrUnsupported.
type Unavailable struct{}

func (Unavailable) Name() string { return "none" }

func (Unavailable) Start(Config, Handlers) (Session, error) { return nil, ErrUnsupported }
