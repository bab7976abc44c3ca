package game

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stackotter/delta-client-sub000/engine/util"
	"github.com/stackotter/delta-client-sub000/engine/voxel"
)

// System is updated once per tick while the world write lock is held.
type System interface {
	Name() string
	Update(world *voxel.World, tick uint64) error
}

type systemFunc struct {
	name   string
	update func(world *voxel.World, tick uint64) error
}

func (s systemFunc) Name() string { return s.name }

func (s systemFunc) Update(world *voxel.World, tick uint64) error { return s.update(world, tick) }

// SystemFunc adapts a function to the System interface.
func SystemFunc(name string, update func(world *voxel.World, tick uint64) error) System {
	return systemFunc{name: name, update: update}
}

// TickLoop runs its systems in order at a fixed rate.
type TickLoop struct {
	world    *voxel.World
	interval time.Duration
	timer    *util.Timer

	mu      sync.Mutex
	systems []System
	ticks   atomic.Uint64
}

func NewTickLoop(world *voxel.World, tickRate int, timer *util.Timer) *TickLoop {
	if tickRate <= 0 {
		tickRate = 20
	}
	if timer == nil {
		timer = util.NewTimer()
	}
	return &TickLoop{
		world:    world,
		interval: time.Second / time.Duration(tickRate),
		timer:    timer,
	}
}

func (l *TickLoop) AddSystem(system System) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.systems = append(l.systems, system)
}

func (l *TickLoop) Interval() time.Duration {
	return l.interval
}

func (l *TickLoop) TickCount() uint64 {
	return l.ticks.Load()
}

// Tick runs every system once under a single write lock. A failing system is
// logged and the remaining systems still run.
func (l *TickLoop) Tick() {
	l.mu.Lock()
	systems := append([]System(nil), l.systems...)
	l.mu.Unlock()

	tick := l.ticks.Add(1)
	stopTick := l.timer.Start("tick")
	l.world.Update(func(w *voxel.World) {
		for _, system := range systems {
			if err := system.Update(w, tick); err != nil {
				util.LogSystemError("system failed", "system", system.Name(), "tick", tick, "error", err)
			}
		}
	})
	if took := stopTick(); took > float64(l.interval.Milliseconds()) {
		util.LogSystemInfo("tick took longer than its interval", "tick", tick, "ms", took)
	}
}

// Run ticks until ctx is cancelled. Cancellation is only observed between ticks.
func (l *TickLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Tick()
		}
	}
}
