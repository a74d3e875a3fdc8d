package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meko-christian/hrir-spatializer/internal/convolver"
	"github.com/meko-christian/hrir-spatializer/internal/renderer"
	"github.com/meko-christian/hrir-spatializer/internal/speaker"
)

func TestLoadOfZeroValueIsNil(t *testing.T) {
	var p Publisher
	assert.Nil(t, p.Load())
}

func TestPublishAndLoad(t *testing.T) {
	var p Publisher
	st := buildState(t, 7)
	p.Publish(st)
	assert.Same(t, st, p.Load())
}

func TestClearPublishesNil(t *testing.T) {
	var p Publisher
	p.Publish(buildState(t, 1))
	p.Clear()
	assert.Nil(t, p.Load())
}

// TestStateSwapAtomicity is spec.md §8 scenario 6: swap the Renderer
// State many times on one goroutine while a concurrent goroutine loads
// and "processes" it, and confirm every load observes a fully
// constructed state (its Checksum is never a torn or zero value from a
// half-installed swap) and every output sample stays finite.
func TestStateSwapAtomicity(t *testing.T) {
	var p Publisher
	const swaps = 10000
	const blockSize = 16

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		in := [][]float32{make([]float32, blockSize)}
		for i := range in[0] {
			in[0][i] = 0.5
		}
		lOut := make([]float32, blockSize)
		rOut := make([]float32, blockSize)

		for {
			select {
			case <-done:
				return
			default:
			}
			st := p.Load()
			if st == nil {
				continue
			}
			assert.NotZero(t, st.Checksum)
			st.Process(in, lOut, rOut, blockSize)
			for _, v := range lOut {
				assert.False(t, isNonFinite(v))
			}
			for _, v := range rOut {
				assert.False(t, isNonFinite(v))
			}
		}
	}()

	for i := uint64(1); i <= swaps; i++ {
		p.Publish(buildState(t, i))
	}
	close(done)
	wg.Wait()
}

func isNonFinite(v float32) bool {
	return v != v || v > 1e30 || v < -1e30
}

func buildState(t *testing.T, checksum uint64) *renderer.State {
	t.Helper()
	ir := make([]float32, 32)
	ir[0] = 1
	left, err := convolver.New(ir, 16)
	if err != nil {
		t.Fatal(err)
	}
	right, err := convolver.New(ir, 16)
	if err != nil {
		t.Fatal(err)
	}

	st, err := renderer.New([]renderer.SpeakerConvolvers{
		{Position: speaker.FL, Left: left, Right: right},
	}, 1, 1, checksum)
	if err != nil {
		t.Fatal(err)
	}
	return st
}
