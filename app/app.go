// Package app wires the station onto a HAL: tick pump, boot console, main
// loop and the halt screen.
package app

import (
	"context"
	"errors"
	"fmt"

	"co2scope/config"
	"co2scope/hal"
	"co2scope/internal/buildinfo"
	"co2scope/station/monitor"
	"co2scope/station/tick"
)

// Run boots the station on h and runs it until ctx is done. A fatal error is
// shown on the halt screen before it is returned.
func Run(ctx context.Context, h hal.HAL, cfg *config.Config, opts ...monitor.Option) (err error) {
	defer func() {
		if r := recover(); r != nil {
			showHalt(h, fmt.Errorf("panic: %v", r))
			panic(r)
		}
	}()

	m, err := monitor.New(h, cfg, opts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if t := h.Time(); t != nil {
		go pumpTicks(ctx, t.Ticks(), m.Clock())
	}

	console := newConsole(h.Display())
	fmt.Fprintf(console, "co2scope %s\n", buildinfo.Short())
	if l := h.Logger(); l != nil {
		l.WriteLineString("app: co2scope " + buildinfo.Short())
	}

	if err := m.Boot(console); err != nil {
		showHalt(h, err)
		return err
	}
	if err := m.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		showHalt(h, err)
		return err
	}
	return nil
}

// pumpTicks forwards the tick stream to the clock. Sequence gaps, from ticks
// the stream coalesced or dropped, are caught up in one step.
func pumpTicks(ctx context.Context, ticks <-chan uint64, clock *tick.Clock) {
	if ticks == nil {
		return
	}
	var last uint64
	for {
		select {
		case <-ctx.Done():
			return
		case seq, ok := <-ticks:
			if !ok {
				return
			}
			if seq > last {
				clock.Elapse(uint32(seq - last))
				last = seq
			}
		}
	}
}
