//go:build !tinygo && cgo

package hal

import (
	"context"
	"errors"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunWindow starts a desktop window that displays the framebuffer and forwards
// keys to the buttons. run executes on its own goroutine with the window's
// HAL; run's context is cancelled when the window closes. It blocks until
// both are done.
func RunWindow(ctx context.Context, cfg HostConfig, run func(ctx context.Context, h HAL) error) error {
	cfg.tone = true
	h := newHost(cfg)
	scale := cfg.WindowScale
	if scale <= 0 {
		scale = 2
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx, h) }()

	g := &hostGame{h: h, kbd: newHostKeyboard(h.buttons), done: done}
	title := cfg.Title
	if title == "" {
		title = "co2scope"
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(h.fb.width*scale, h.fb.height*scale)
	ebiten.SetTPS(60)

	err := ebiten.RunGame(g)
	cancel()
	if g.finished {
		err = g.runErr
	} else {
		runErr := <-done
		if err == nil && !errors.Is(runErr, context.Canceled) {
			err = runErr
		}
	}
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

type hostGame struct {
	h       *hostHAL
	kbd     *hostKeyboard
	done    <-chan error
	img     *image.RGBA
	fbImg   *ebiten.Image
	scratch []byte
	frame   uint64

	finished bool
	runErr   error
}

// Update closes the window when run returns cleanly. After a failure the
// window stays up, showing the halt screen, until Escape.
func (g *hostGame) Update() error {
	if g.kbd.poll() {
		return ebiten.Termination
	}
	if g.finished {
		return nil
	}
	g.h.t.step()
	select {
	case err := <-g.done:
		g.finished = true
		g.runErr = err
		if err == nil || errors.Is(err, context.Canceled) {
			return ebiten.Termination
		}
	default:
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.h.fb
	if g.img == nil {
		g.img = image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
		g.scratch = make([]byte, len(fb.buf))
		g.fbImg = ebiten.NewImage(fb.width, fb.height)
	}

	if frame := fb.snapshotRGB565(g.scratch); frame != g.frame {
		g.frame = frame
		src := g.scratch
		dst := g.img.Pix
		for i := 0; i+1 < len(src) && i/2*4+3 < len(dst); i += 2 {
			r, gg, b := rgb888From565(uint16(src[i]) | uint16(src[i+1])<<8)
			j := (i / 2) * 4
			dst[j+0] = r
			dst[j+1] = gg
			dst[j+2] = b
			dst[j+3] = 0xFF
		}
		g.fbImg.WritePixels(g.img.Pix)
	}

	op := &ebiten.DrawImageOptions{}
	if !g.h.backlight.Level() {
		op.ColorScale.Scale(0.12, 0.12, 0.12, 1)
	}
	screen.DrawImage(g.fbImg, op)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.fb.width, g.h.fb.height
}
