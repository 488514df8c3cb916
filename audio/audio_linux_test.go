//go:build linux

package audio

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/assert"
)

func TestClassifyPulse(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{proto.ErrAccessDenied, ErrAccessDenied},
		{fmt.Errorf("create record: %w", proto.ErrDeviceOrEesourceBusy), ErrDeviceBusy},
		{proto.ErrNoSuchEntity, ErrNoDevice},
	}
	for _, tt := range tests {
		got := classifyPulse(tt.err)
		assert.ErrorIs(t, got, tt.want, tt.err.Error())
		assert.ErrorIs(t, got, tt.err, "original error kept")
	}

	other := errors.New("connection reset")
	assert.Equal(t, other, classifyPulse(other))
	assert.Equal(t, proto.ErrTimeout, classifyPulse(proto.ErrTimeout))
}

func TestRecordLatencyMatchesChunk(t *testing.T) {
	cfg := DefaultConfig()
	assert.InDelta(t, 0.05, recordLatency(cfg), 1e-9)
	cfg.ChunkBytes = BytesPerMs * 100
	assert.InDelta(t, 0.1, recordLatency(cfg), 1e-9)
}
