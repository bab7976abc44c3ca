package model

const (
	// a full fluid block stops short of the top of its cell
	MAX_FLUID_HEIGHT = 0.8125
	FLUID_LEVELS     = 8
)

type Fluid struct {
	Identifier     string
	StillTexture   int
	FlowingTexture int
	// water takes the biome water colour, lava does not
	Tinted bool
}

// FluidState is the fluid part of a block state. Level 0 is a source, 1-7
// spread out and -1 means the state does not say.
type FluidState struct {
	Fluid   *Fluid
	Level   int
	Falling bool
	// the block also has a solid model, e.g. a waterlogged slab
	Waterlogged bool
}

// Height is the surface height of the fluid inside its block.
func (s FluidState) Height() float32 {
	if s.Falling || s.Level < 0 || s.Level >= FLUID_LEVELS {
		return MAX_FLUID_HEIGHT
	}
	return MAX_FLUID_HEIGHT * float32(FLUID_LEVELS-s.Level) / FLUID_LEVELS
}

// SameFluid compares fluid kinds, levels do not matter.
func (s FluidState) SameFluid(other FluidState) bool {
	return s.Fluid != nil && other.Fluid != nil && s.Fluid.Identifier == other.Fluid.Identifier
}
