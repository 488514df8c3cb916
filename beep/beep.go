// Package beep plays short cue tones and raw speech audio.
package beep

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"sync/atomic"

	"easybingo/log"
)

var disabled atomic.Bool

// Disable turns every cue and PlayPCM into a no-op.
func Disable() { disabled.Store(true) }

// ErrDisabled is returned by PlayPCM after Disable.
var ErrDisabled = errors.New("audio playback disabled")

const (
	sampleRate = 44100

	// Start: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// End: medium pitch, slightly longer
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// Error: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30

	// Win: rising two-note chime
	winLowFreq  = 660
	winHighFreq = 990
	winVolume   = 0.5
	winDecay    = 12
)

type cue int

const (
	cueStart cue = iota
	cueEnd
	cueError
	cueWin
	numCues
)

var (
	cues      [numCues][]int16
	soundOnce sync.Once
)

func initSamples() {
	cues[cueStart] = generateTick(sampleRate, startFreq, 0.2, startVolume, startDecay)
	cues[cueEnd] = generateTick(sampleRate, endFreq, 0.2, endVolume, endDecay)
	cues[cueError] = generateDoubleBeep(sampleRate, errorFreq, 0.08, 0.05, errorVolume, errorDecay)
	cues[cueWin] = append(
		generateTick(sampleRate, winLowFreq, 0.15, winVolume, winDecay),
		generateTick(sampleRate, winHighFreq, 0.35, winVolume, winDecay)...,
	)
}

// generateTick returns mono samples of a decaying sine.
func generateTick(sampleRate int, freq, duration, volume, decay float64) []int16 {
	n := int(float64(sampleRate) * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func generateDoubleBeep(sampleRate int, freq, beepDur, gapDur, volume, decay float64) []int16 {
	beep := generateTick(sampleRate, freq, beepDur, volume, decay)
	gap := make([]int16, int(float64(sampleRate)*gapDur))
	result := make([]int16, 0, len(beep)*2+len(gap))
	result = append(result, beep...)
	result = append(result, gap...)
	result = append(result, beep...)
	return result
}

// pcmToSamples decodes little-endian PCM16. A trailing odd byte is dropped.
func pcmToSamples(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples
}

func samplesToPCM(samples []int16) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return pcm
}

// Init prepares the cue samples ahead of the first cue.
func Init() { soundOnce.Do(initSamples) }

func PlayStart() { playCue(cueStart) }

func PlayEnd() { playCue(cueEnd) }

func PlayError() { playCue(cueError) }

func PlayWin() { playCue(cueWin) }

func playCue(c cue) {
	if disabled.Load() {
		return
	}
	soundOnce.Do(initSamples)
	go func() {
		if err := playSamples(context.Background(), cues[c], sampleRate); err != nil {
			log.Warnf("cue playback: %v", err)
		}
	}()
}

// PlayPCM plays mono little-endian PCM16 at rate and blocks until it has
// drained or ctx is done.
func PlayPCM(ctx context.Context, pcm []byte, rate int) error {
	if disabled.Load() {
		return ErrDisabled
	}
	return playSamples(ctx, pcmToSamples(pcm), rate)
}
