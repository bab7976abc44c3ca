package voxel

import (
	"sort"
	"sync"
)

// World owns every loaded chunk. Readers hold the lock through View, the
// tick loop and packet handlers mutate through Update. Accessors on the
// world itself assume the caller is inside one of the two.
type World struct {
	lock   sync.RWMutex
	chunks map[ChunkPosition]*Chunk
}

func NewWorld() *World {
	return &World{chunks: make(map[ChunkPosition]*Chunk)}
}

func (w *World) View(fn func(w *World)) {
	w.lock.RLock()
	defer w.lock.RUnlock()
	fn(w)
}

func (w *World) Update(fn func(w *World)) {
	w.lock.Lock()
	defer w.lock.Unlock()
	fn(w)
}

func (w *World) GetChunk(position ChunkPosition) *Chunk {
	return w.chunks[position]
}

func (w *World) ChunkExists(position ChunkPosition) bool {
	_, ok := w.chunks[position]
	return ok
}

func (w *World) SetChunk(chunk *Chunk) {
	w.chunks[chunk.Position()] = chunk
}

func (w *World) RemoveChunk(position ChunkPosition) bool {
	if _, ok := w.chunks[position]; !ok {
		return false
	}
	delete(w.chunks, position)
	return true
}

func (w *World) ChunkCount() int {
	return len(w.chunks)
}

// LoadedChunks is sorted by x then z.
func (w *World) LoadedChunks() []ChunkPosition {
	result := make([]ChunkPosition, 0, len(w.chunks))
	for position := range w.chunks {
		result = append(result, position)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].X != result[j].X {
			return result[i].X < result[j].X
		}
		return result[i].Z < result[j].Z
	})
	return result
}

func (w *World) GetGlobalBlock(pos Int3) BlockID {
	chunk := w.chunks[ChunkPositionOf(pos)]
	if chunk == nil {
		return AIR
	}
	return chunk.BlockID(pos.X&15, pos.Y, pos.Z&15)
}

// SetGlobalBlock returns false when the chunk is not loaded.
func (w *World) SetGlobalBlock(pos Int3, id BlockID) bool {
	chunk := w.chunks[ChunkPositionOf(pos)]
	if chunk == nil || !chunk.Contains(pos.X&15, pos.Y, pos.Z&15) {
		return false
	}
	chunk.SetBlockID(pos.X&15, pos.Y, pos.Z&15, id)
	return true
}

func (w *World) GetGlobalLight(pos Int3) LightLevel {
	chunk := w.chunks[ChunkPositionOf(pos)]
	if chunk == nil {
		return DefaultLightLevel
	}
	return chunk.Light(pos.X&15, pos.Y, pos.Z&15)
}

// NeighboursLoaded reports whether all eight surrounding chunks are present.
func (w *World) NeighboursLoaded(position ChunkPosition) bool {
	for dx := int32(-1); dx <= 1; dx++ {
		for dz := int32(-1); dz <= 1; dz++ {
			if dx == 0 && dz == 0 {
				continue
			}
			if _, ok := w.chunks[position.Offset(dx, dz)]; !ok {
				return false
			}
		}
	}
	return true
}
