//go:build !linux

package beep

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

var (
	malgoCtx *malgo.AllocatedContext
	ctxErr   error
	ctxOnce  sync.Once
	playMu   sync.Mutex
)

func initContext() {
	malgoCtx, ctxErr = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
}

// playSamples opens a playback device for the duration of one buffer.
func playSamples(ctx context.Context, samples []int16, rate int) error {
	if len(samples) == 0 {
		return nil
	}
	ctxOnce.Do(initContext)
	if ctxErr != nil {
		return fmt.Errorf("malgo: %w", ctxErr)
	}

	playMu.Lock()
	defer playMu.Unlock()

	data := samplesToPCM(samples)
	var (
		mu   sync.Mutex
		pos  int
		done = make(chan struct{})
		once sync.Once
	)
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = uint32(rate)

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			mu.Lock()
			defer mu.Unlock()
			n := copy(out[:min(int(frameCount)*2, len(out))], data[pos:])
			pos += n
			for i := n; i < len(out); i++ {
				out[i] = 0
			}
			if pos >= len(data) {
				once.Do(func() { close(done) })
			}
		},
	}
	device, err := malgo.InitDevice(malgoCtx.Context, config, callbacks)
	if err != nil {
		return fmt.Errorf("malgo init device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("malgo start: %w", err)
	}
	defer device.Stop()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
