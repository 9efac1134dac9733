package trace

import (
	"context"
	"time"

	"github.com/dshills/keyflow/internal/input/key"
	"github.com/dshills/keyflow/internal/source"
)

// DefaultStep is the tick interval used between events.
const DefaultStep = time.Millisecond

// DefaultTail is how long the player keeps ticking after the last event
// so that pending timers resolve.
const DefaultTail = 2 * time.Second

// Target receives replayed events. *input.Engine satisfies it.
type Target interface {
	HandleKey(ev key.Event)
	HandleMotion(m key.Motion)
	Tick(now time.Time)
}

// Player replays traces into a target.
type Player struct {
	step time.Duration
	tail time.Duration
}

// NewPlayer creates a player. A non-positive step or a negative tail
// takes the default.
func NewPlayer(step, tail time.Duration) *Player {
	if step <= 0 {
		step = DefaultStep
	}
	if tail < 0 {
		tail = DefaultTail
	}
	return &Player{step: step, tail: tail}
}

// Play feeds the trace to target with its first event at start.
// Between events the target is ticked every step; after the last event it
// is ticked for the tail duration. Play returns the time of the final tick.
func (p *Player) Play(ctx context.Context, tr *Trace, target Target, start time.Time) (time.Time, error) {
	events, err := tr.Events(start)
	if err != nil {
		return start, err
	}
	if len(events) == 0 {
		return start, ErrEmptyTrace
	}

	now := start
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return now, err
		}
		at := eventTime(ev)
		now = p.tickUntil(target, now, at)

		switch ev.Kind {
		case source.KindMotion:
			target.HandleMotion(ev.Motion)
		default:
			target.HandleKey(ev.Key)
		}
	}

	end := now.Add(p.tail)
	now = p.tickUntil(target, now, end)
	target.Tick(end)
	return end, ctx.Err()
}

// tickUntil ticks from now in steps strictly before until and returns
// until.
func (p *Player) tickUntil(target Target, now, until time.Time) time.Time {
	for t := now.Add(p.step); t.Before(until); t = t.Add(p.step) {
		target.Tick(t)
	}
	if until.After(now) {
		return until
	}
	return now
}
