//go:build linux

package audio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

// Caller microphones are usually quiet; Pulse applies the stream volume
// before we see samples, so the software gain stays small.
const (
	streamVolume = 3
	defaultGain  = 4
)

type pulseContext struct {
	client *pulse.Client
}

func NewContext() (Context, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("EasyBingo"))
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", classifyPulse(err))
	}
	return &pulseContext{client: c}, nil
}

func (p *pulseContext) Devices() ([]DeviceInfo, error) {
	sources, err := p.client.ListSources()
	if err != nil {
		return nil, fmt.Errorf("pulse list sources: %w", classifyPulse(err))
	}
	devices := make([]DeviceInfo, 0, len(sources))
	for _, s := range sources {
		devices = append(devices, DeviceInfo{ID: s.ID(), Name: s.Name()})
	}
	return devices, nil
}

// NewCapture resolves the source now so a vanished device fails before the
// recognizer opens its connection.
func (p *pulseContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	var source *pulse.Source
	if device != nil {
		s, err := p.client.SourceByID(device.ID)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", device.Name, classifyPulse(err))
		}
		source = s
	}
	if config.Gain == 0 {
		config.Gain = defaultGain
	}
	return &pulseCapture{
		client:  p.client,
		source:  source,
		config:  config,
		batcher: newBatcher(config),
	}, nil
}

func (p *pulseContext) Close() {
	p.client.Close()
}

// classifyPulse maps server error codes onto the package's capture errors
// and keeps the original in the chain.
func classifyPulse(err error) error {
	var code proto.Error
	if !errors.As(err, &code) {
		return err
	}
	switch code {
	case proto.ErrAccessDenied, proto.ErrNoAuthenticationKey:
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	case proto.ErrDeviceOrEesourceBusy, proto.ErrBadState:
		return fmt.Errorf("%w: %w", ErrDeviceBusy, err)
	case proto.ErrNoSuchEntity, proto.ErrEntityKilled:
		return fmt.Errorf("%w: %w", ErrNoDevice, err)
	}
	return err
}

// recordLatency asks Pulse for one recognizer chunk per read.
func recordLatency(cfg CaptureConfig) float64 {
	frames := cfg.ChunkFrames()
	if frames == 0 || cfg.SampleRate == 0 {
		return 0.05
	}
	return (time.Duration(frames) * time.Second / time.Duration(cfg.SampleRate)).Seconds()
}

type pulseCapture struct {
	client   *pulse.Client
	source   *pulse.Source
	config   CaptureConfig
	callback atomic.Pointer[DataCallback]

	mu      sync.Mutex
	batcher *batcher
	stream  *pulse.RecordStream
}

func (c *pulseCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		return nil
	}
	c.batcher.reset()

	// The writer runs on the Pulse client's goroutine only.
	writer := pulse.Int16Writer(func(buf []int16) (int, error) {
		var cb DataCallback
		if p := c.callback.Load(); p != nil {
			cb = *p
		}
		c.batcher.write(buf, cb)
		return len(buf), nil
	})

	opts := []pulse.RecordOption{
		pulse.RecordMono,
		pulse.RecordSampleRate(int(c.config.SampleRate)),
		pulse.RecordLatency(recordLatency(c.config)),
		pulse.RecordMediaName("caller microphone"),
		pulse.RecordRawOption(func(r *proto.CreateRecordStream) {
			r.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm) * streamVolume}
		}),
	}
	if c.source != nil {
		opts = append(opts, pulse.RecordSource(c.source))
	}

	stream, err := c.client.NewRecord(writer, opts...)
	if err != nil {
		return fmt.Errorf("pulse record: %w", classifyPulse(err))
	}
	stream.Start()
	if err := stream.Error(); err != nil {
		stream.Close()
		return fmt.Errorf("pulse record: %w", classifyPulse(err))
	}
	c.stream = stream
	return nil
}

func (c *pulseCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return
	}
	c.stream.Stop()
	c.stream.Close()
	c.stream = nil
}

func (c *pulseCapture) Close() {
	c.Stop()
}

func (c *pulseCapture) SetCallback(cb DataCallback) {
	c.callback.Store(&cb)
}

func (c *pulseCapture) ClearCallback() {
	c.callback.Store(nil)
}
