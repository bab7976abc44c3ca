package game

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/alitto/pond/v2"
	"github.com/stackotter/delta-client-sub000/engine/mesh"
	"github.com/stackotter/delta-client-sub000/engine/mesher"
	"github.com/stackotter/delta-client-sub000/engine/model"
	"github.com/stackotter/delta-client-sub000/engine/util"
	"github.com/stackotter/delta-client-sub000/engine/voxel"
)

// MeshSink receives published section meshes. It is called with the scheduler
// lock held and must not call back into the scheduler.
type MeshSink func(m *mesh.SectionMesh)

// CacheSink publishes into a renderer buffer cache.
func CacheSink(cache *mesh.BufferCache) MeshSink {
	return func(m *mesh.SectionMesh) {
		if _, err := cache.Sync(m); err != nil {
			util.LogMeshError("uploading section mesh failed", "section", m.Position.String(), "error", err)
		}
	}
}

type SchedulerStats struct {
	Submitted uint64
	Published uint64
	Discarded uint64
	Unchanged uint64
}

// MeshScheduler rebuilds sections on a worker pool. Every request gets a new
// generation and only the newest generation of a section is ever published.
type MeshScheduler struct {
	world    *voxel.World
	registry model.Registry
	biomes   model.BiomeRegistry
	publish  MeshSink
	timer    *util.Timer
	pool     pond.Pool
	pending  sync.WaitGroup

	mu             sync.Mutex
	stopped        bool
	nextGeneration uint64
	generations    map[voxel.SectionPosition]uint64
	fingerprints   map[voxel.SectionPosition]uint64
	dirty          map[voxel.SectionPosition]struct{}

	submitted atomic.Uint64
	published atomic.Uint64
	discarded atomic.Uint64
	unchanged atomic.Uint64
}

func NewMeshScheduler(world *voxel.World, registry model.Registry, biomes model.BiomeRegistry, workers int, publish MeshSink, timer *util.Timer) *MeshScheduler {
	if workers <= 0 {
		workers = 1
	}
	if timer == nil {
		timer = util.NewTimer()
	}
	return &MeshScheduler{
		world:        world,
		registry:     registry,
		biomes:       biomes,
		publish:      publish,
		timer:        timer,
		pool:         pond.NewPool(workers),
		generations:  make(map[voxel.SectionPosition]uint64),
		fingerprints: make(map[voxel.SectionPosition]uint64),
		dirty:        make(map[voxel.SectionPosition]struct{}),
	}
}

func (s *MeshScheduler) Name() string {
	return "mesh"
}

// Update submits the sections invalidated since the last tick.
func (s *MeshScheduler) Update(world *voxel.World, tick uint64) error {
	s.Flush()
	return nil
}

// Invalidate marks sections for rebuilding on the next Flush.
func (s *MeshScheduler) Invalidate(positions ...voxel.SectionPosition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, position := range positions {
		if position.IsValid() {
			s.dirty[position] = struct{}{}
		}
	}
}

// Flush submits every dirty section and returns how many were submitted.
func (s *MeshScheduler) Flush() int {
	s.mu.Lock()
	positions := make([]voxel.SectionPosition, 0, len(s.dirty))
	for position := range s.dirty {
		positions = append(positions, position)
	}
	s.dirty = make(map[voxel.SectionPosition]struct{})
	s.mu.Unlock()

	// bottom up, column by column
	sort.Slice(positions, func(i, j int) bool {
		a, b := positions[i], positions[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.Y < b.Y
	})
	count := 0
	for _, position := range positions {
		if _, ok := s.Schedule(position); ok {
			count++
		}
	}
	return count
}

// Schedule submits a build right away. It returns the generation of the request,
// false when the scheduler is stopped.
func (s *MeshScheduler) Schedule(position voxel.SectionPosition) (uint64, bool) {
	s.mu.Lock()
	if s.stopped || !position.IsValid() {
		s.mu.Unlock()
		return 0, false
	}
	s.nextGeneration++
	generation := s.nextGeneration
	s.generations[position] = generation
	s.pending.Add(1)
	s.mu.Unlock()

	s.submitted.Add(1)
	s.pool.Submit(func() {
		defer s.pending.Done()
		s.build(position, generation)
	})
	return generation, true
}

func (s *MeshScheduler) isCurrent(position voxel.SectionPosition, generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[position] == generation
}

func (s *MeshScheduler) build(position voxel.SectionPosition, generation uint64) {
	if !s.isCurrent(position, generation) {
		s.discarded.Add(1)
		return
	}

	stopTimer := s.timer.Start("mesh.section")
	var (
		result      *mesh.SectionMesh
		fingerprint uint64
		loaded      bool
		superseded  bool
		unchanged   bool
	)
	s.world.View(func(w *voxel.World) {
		chunk := w.GetChunk(position.Chunk())
		if chunk == nil {
			return
		}
		loaded = true
		neighbourhood := mesher.NewNeighbourhood(chunk, w.GetChunk)
		fingerprint = sectionFingerprint(neighbourhood, int(position.Y))

		s.mu.Lock()
		current := s.generations[position] == generation
		previous, built := s.fingerprints[position]
		s.mu.Unlock()
		if !current {
			superseded = true
			return
		}
		if built && previous == fingerprint {
			unchanged = true
			return
		}
		result = mesher.NewSectionMeshBuilder(neighbourhood, int(position.Y), s.registry, s.biomes).Build()
	})
	stopTimer()

	if !loaded || superseded {
		// a newer request exists or the chunk was unloaded after the request
		s.discarded.Add(1)
		return
	}
	if unchanged {
		s.unchanged.Add(1)
		return
	}

	result.Generation = generation
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[position] != generation {
		s.discarded.Add(1)
		util.LogMeshDebug("discarding superseded mesh", "section", position.String(), "generation", generation)
		return
	}
	s.fingerprints[position] = fingerprint
	s.published.Add(1)
	if s.publish != nil {
		s.publish(result)
	}
}

// Forget drops all state of a column and publishes empty meshes so renderers
// release its buffers. Builds still in flight are discarded.
func (s *MeshScheduler) Forget(chunk voxel.ChunkPosition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for y := int32(0); y < voxel.SECTIONS_PER_CHUNK; y++ {
		position := voxel.SectionPosition{X: chunk.X, Y: y, Z: chunk.Z}
		delete(s.dirty, position)
		delete(s.fingerprints, position)
		if _, known := s.generations[position]; !known {
			continue
		}
		s.nextGeneration++
		s.generations[position] = s.nextGeneration
		if s.publish != nil {
			empty := mesh.NewSectionMesh(position)
			empty.Generation = s.nextGeneration
			s.publish(empty)
		}
	}
}

// Wait blocks until every submitted build has finished.
func (s *MeshScheduler) Wait() {
	s.pending.Wait()
}

// Stop waits for running builds and shuts the pool down.
func (s *MeshScheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()
	s.pending.Wait()
	s.pool.StopAndWait()
}

func (s *MeshScheduler) Stats() SchedulerStats {
	return SchedulerStats{
		Submitted: s.submitted.Load(),
		Published: s.published.Load(),
		Discarded: s.discarded.Load(),
		Unchanged: s.unchanged.Load(),
	}
}

func (s *MeshScheduler) Timer() *util.Timer {
	return s.timer
}
