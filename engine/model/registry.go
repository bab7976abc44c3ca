package model

import "github.com/stackotter/delta-client-sub000/engine/voxel"

// Registry resolves block states to render data. Implementations must be
// safe for concurrent reads, meshes are built on several workers.
type Registry interface {
	// Model picks the model variant for a block at a world position.
	Model(id voxel.BlockID, position voxel.Int3) (*Model, bool)
	Fluid(id voxel.BlockID) (FluidState, bool)
	// SelfCulls reports whether the face between id and an identical neighbour is hidden, e.g. glass or leaves.
	SelfCulls(id, neighbour voxel.BlockID) bool
}

// OpaquePredicate reports blocks that close off all six faces, for the connectivity graph.
func OpaquePredicate(registry Registry) func(voxel.BlockID) bool {
	return func(id voxel.BlockID) bool {
		m, ok := registry.Model(id, voxel.Int3{})
		return ok && m.IsFullyOpaque()
	}
}

// MemoryRegistry is filled once at start up and read only afterwards.
type MemoryRegistry struct {
	models      map[voxel.BlockID][]*Model
	fluids      map[voxel.BlockID]FluidState
	selfCulling map[voxel.BlockID]struct{}
	names       map[voxel.BlockID]string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		models:      make(map[voxel.BlockID][]*Model),
		fluids:      make(map[voxel.BlockID]FluidState),
		selfCulling: make(map[voxel.BlockID]struct{}),
		names:       make(map[voxel.BlockID]string),
	}
}

// AddBlock registers the model variants of a block state.
func (r *MemoryRegistry) AddBlock(id voxel.BlockID, name string, variants ...*Model) {
	r.names[id] = name
	if len(variants) > 0 {
		r.models[id] = variants
	}
}

func (r *MemoryRegistry) AddFluid(id voxel.BlockID, name string, state FluidState) {
	r.names[id] = name
	r.fluids[id] = state
}

func (r *MemoryRegistry) SetSelfCulling(ids ...voxel.BlockID) {
	for _, id := range ids {
		r.selfCulling[id] = struct{}{}
	}
}

func (r *MemoryRegistry) Name(id voxel.BlockID) string {
	return r.names[id]
}

func (r *MemoryRegistry) Model(id voxel.BlockID, position voxel.Int3) (*Model, bool) {
	variants := r.models[id]
	switch len(variants) {
	case 0:
		return nil, false
	case 1:
		return variants[0], true
	}
	return variants[PositionSeed(position)%uint64(len(variants))], true
}

func (r *MemoryRegistry) Fluid(id voxel.BlockID) (FluidState, bool) {
	state, ok := r.fluids[id]
	return state, ok
}

func (r *MemoryRegistry) SelfCulls(id, neighbour voxel.BlockID) bool {
	if id != neighbour {
		return false
	}
	_, ok := r.selfCulling[id]
	return ok
}

// PositionSeed is the vanilla per position hash used to pick random model variants.
func PositionSeed(position voxel.Int3) uint64 {
	seed := int64(position.X)*3129871 ^ int64(position.Z)*116129781 ^ int64(position.Y)
	seed = seed*seed*42317861 + seed*11
	return uint64(seed >> 16)
}
