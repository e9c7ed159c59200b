//go:build !tinygo && cgo

package hal

import (
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

const (
	toneSampleRate = 48000
	toneHz         = 1000
	toneAmplitude  = 0x2000
)

// ebitenTone plays a 1 kHz square wave through Ebiten's audio package while
// the gate is open and silence otherwise.
type ebitenTone struct {
	mu     sync.Mutex
	ctx    *audio.Context
	player *audio.Player
	gate   bool
	phase  int
}

func newHostTone() toneOutput {
	return &ebitenTone{}
}

func (t *ebitenTone) SetGate(on bool) error {
	t.mu.Lock()
	t.gate = on
	needPlayer := t.player == nil && on
	t.mu.Unlock()

	if !needPlayer {
		return nil
	}
	return t.start()
}

func (t *ebitenTone) start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.player != nil {
		return nil
	}
	if t.ctx == nil {
		t.ctx = audio.CurrentContext()
		if t.ctx == nil {
			t.ctx = audio.NewContext(toneSampleRate)
		}
	}
	p, err := t.ctx.NewPlayer(&toneReader{t: t})
	if err != nil {
		return err
	}
	p.SetBufferSize(20 * time.Millisecond)
	p.Play()
	t.player = p
	return nil
}

type toneReader struct {
	t *ebitenTone
}

// Read fills p with 16-bit little-endian stereo frames.
func (r *toneReader) Read(p []byte) (int, error) {
	t := r.t
	t.mu.Lock()
	defer t.mu.Unlock()

	const half = toneSampleRate / toneHz / 2
	n := len(p) &^ 3
	for i := 0; i < n; i += 4 {
		var s int16
		if t.gate {
			s = toneAmplitude
			if t.phase >= half {
				s = -toneAmplitude
			}
		}
		t.phase++
		if t.phase >= 2*half {
			t.phase = 0
		}
		p[i+0] = byte(s)
		p[i+1] = byte(s >> 8)
		p[i+2] = byte(s)
		p[i+3] = byte(s >> 8)
	}
	return n, nil
}
