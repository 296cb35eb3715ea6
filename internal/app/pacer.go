package app

import (
	"context"
	"time"

	"gonesapu/internal/sink"
)

// pacer keeps a realtime backend from running ahead of the listener.
// Backends that report their queue depth are held at half the configured
// latency, below the point where their ring starts dropping; others are
// paced by the frame clock.
type pacer struct {
	realtime  bool
	buffered  sink.Buffered
	frameTime time.Duration
	maxQueued int
	next      time.Time
}

func newPacer(backend sink.Backend, frameTime time.Duration, sampleRate, latencyMS int) *pacer {
	p := &pacer{
		realtime:  backend.IsRealtime(),
		frameTime: frameTime,
		maxQueued: sampleRate * latencyMS / 2000,
		next:      time.Now(),
	}
	if b, ok := backend.(sink.Buffered); ok {
		p.buffered = b
	}
	return p
}

func (p *pacer) wait(ctx context.Context) error {
	if !p.realtime {
		return nil
	}

	if p.buffered != nil {
		for p.buffered.Buffered() > p.maxQueued {
			if err := sleep(ctx, p.frameTime/4); err != nil {
				return err
			}
		}
		return nil
	}

	p.next = p.next.Add(p.frameTime)
	if d := time.Until(p.next); d > 0 {
		return sleep(ctx, d)
	}
	// Behind schedule: resynchronize instead of bursting
	p.next = time.Now()
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
