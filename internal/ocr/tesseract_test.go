package ocr

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"agro-kyc/internal/kyc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTesseractAbandonedRunKeepsSlot(t *testing.T) {
	r := NewTesseractRecognizer("", 1, zap.NewNop())

	var calls atomic.Int32
	release := make(chan struct{})
	r.run = func([]byte, []string) (kyc.Recognition, error) {
		calls.Add(1)
		<-release
		return kyc.Recognition{Text: "CARTEIRA DE IDENTIDADE", Confidence: 0.8}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := r.Recognize(ctx, pngHeader, []string{"por"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), calls.Load())

	// the engine is still busy with the abandoned image
	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()
	_, err = r.Recognize(ctx2, pngHeader, []string{"por"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), calls.Load(), "no second run may start while the slot is held")

	close(release)

	rec, err := r.Recognize(context.Background(), pngHeader, []string{"por"})
	require.NoError(t, err)
	assert.Equal(t, "CARTEIRA DE IDENTIDADE", rec.Text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTesseractRunsUpToLimitConcurrently(t *testing.T) {
	r := NewTesseractRecognizer("", 2, zap.NewNop())

	var inFlight, peak atomic.Int32
	gate := make(chan struct{})
	r.run = func([]byte, []string) (kyc.Recognition, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-gate
		inFlight.Add(-1)
		return kyc.Recognition{Text: "ok"}, nil
	}

	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			_, err := r.Recognize(context.Background(), pngHeader, nil)
			errs <- err
		}()
	}

	assert.Eventually(t, func() bool { return inFlight.Load() == 2 }, time.Second, 5*time.Millisecond)
	close(gate)
	for i := 0; i < 4; i++ {
		assert.NoError(t, <-errs)
	}
	assert.Equal(t, int32(2), peak.Load())
}

func TestTesseractDefaultsToCPUSlots(t *testing.T) {
	r := NewTesseractRecognizer("", 0, zap.NewNop())
	require.NotNil(t, r.slots)
	assert.True(t, r.slots.TryAcquire(1))
	r.slots.Release(1)
}
