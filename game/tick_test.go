package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stackotter/delta-client-sub000/engine/voxel"
)

func TestTickRunsSystemsInOrder(t *testing.T) {
	world := voxel.NewWorld()
	loop := NewTickLoop(world, 20, nil)

	var calls []string
	loop.AddSystem(SystemFunc("first", func(w *voxel.World, tick uint64) error {
		calls = append(calls, "first")
		w.SetChunk(voxel.NewChunk(voxel.ChunkPosition{X: int32(tick)}))
		return nil
	}))
	loop.AddSystem(SystemFunc("failing", func(w *voxel.World, tick uint64) error {
		calls = append(calls, "failing")
		return errors.New("boom")
	}))
	loop.AddSystem(SystemFunc("last", func(w *voxel.World, tick uint64) error {
		calls = append(calls, "last")
		return nil
	}))

	loop.Tick()
	loop.Tick()

	want := []string{"first", "failing", "last", "first", "failing", "last"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
	if loop.TickCount() != 2 {
		t.Errorf("tick count = %d, want 2", loop.TickCount())
	}
	world.View(func(w *voxel.World) {
		if w.ChunkCount() != 2 {
			t.Errorf("systems added %d chunks, want 2", w.ChunkCount())
		}
	})
}

func TestTickInterval(t *testing.T) {
	tests := []struct {
		rate int
		want time.Duration
	}{
		{20, 50 * time.Millisecond},
		{10, 100 * time.Millisecond},
		{0, 50 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := NewTickLoop(voxel.NewWorld(), tt.rate, nil).Interval(); got != tt.want {
			t.Errorf("rate %d: interval = %v, want %v", tt.rate, got, tt.want)
		}
	}
}

func TestTickLoopStopsBetweenTicks(t *testing.T) {
	loop := NewTickLoop(voxel.NewWorld(), 1000, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen []uint64
	loop.AddSystem(SystemFunc("cancel", func(w *voxel.World, tick uint64) error {
		seen = append(seen, tick)
		if tick == 3 {
			cancel()
		}
		return nil
	}))

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tick loop did not stop")
	}

	if len(seen) < 3 {
		t.Fatalf("saw %d ticks, want at least 3", len(seen))
	}
	for i, tick := range seen {
		if tick != uint64(i+1) {
			t.Errorf("tick %d numbered %d", i, tick)
		}
	}
}
