//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Host HostConfig
	// Hz is how often wall time is folded into the tick stream.
	Hz int
	// Duration stops the runner after this long; zero runs until ctx ends.
	Duration time.Duration
}

// RunHeadless runs the station without opening a window. The display is an
// in-memory framebuffer. A run cut short by Duration or ctx is not an error.
func RunHeadless(ctx context.Context, cfg HeadlessConfig, run func(ctx context.Context, h HAL) error) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 100
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h := newHost(cfg.Host)

	go func() {
		t := time.NewTicker(d)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				h.t.step()
			}
		}
	}()

	err := run(ctx, h)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
