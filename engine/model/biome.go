package model

import (
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stackotter/delta-client-sub000/engine/util"
	"golang.org/x/image/draw"
)

type TintType uint8

const (
	TintNone TintType = iota
	TintGrass
	TintFoliage
	TintWater
)

func (t TintType) String() string {
	switch t {
	case TintNone:
		return "none"
	case TintGrass:
		return "grass"
	case TintFoliage:
		return "foliage"
	case TintWater:
		return "water"
	}
	return "unknown"
}

var White = mgl32.Vec3{1, 1, 1}

type Biome struct {
	ID          uint8
	Identifier  string
	Temperature float32
	Rainfall    float32
	WaterColor  mgl32.Vec3
	// fixed colours replace the colour map lookup when set
	GrassColor   *mgl32.Vec3
	FoliageColor *mgl32.Vec3
}

type BiomeRegistry interface {
	Biome(id uint8) (*Biome, bool)
	// Tint resolves the colour multiplier of a tint type in a biome.
	Tint(biome *Biome, tint TintType) mgl32.Vec3
}

const COLOR_MAP_SIZE = 256

// ColorMap is a temperature/rainfall triangle like grass.png and foliage.png.
type ColorMap struct {
	pixels *image.NRGBA
}

// NewColorMap normalises src to 256x256.
func NewColorMap(src image.Image) *ColorMap {
	pixels := image.NewNRGBA(image.Rect(0, 0, COLOR_MAP_SIZE, COLOR_MAP_SIZE))
	draw.NearestNeighbor.Scale(pixels, pixels.Bounds(), src, src.Bounds(), draw.Src, nil)
	return &ColorMap{pixels: pixels}
}

func LoadColorMap(filename string) (*ColorMap, error) {
	img, err := loadImage(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "loading color map %s", filename)
	}
	return NewColorMap(img), nil
}

// Lookup follows the vanilla triangle: rainfall is scaled by temperature.
func (m *ColorMap) Lookup(temperature, rainfall float32) mgl32.Vec3 {
	t := util.Clamp(temperature, 0, 1)
	r := util.Clamp(rainfall, 0, 1) * t
	x := int((1 - t) * (COLOR_MAP_SIZE - 1))
	y := int((1 - r) * (COLOR_MAP_SIZE - 1))
	c := m.pixels.NRGBAAt(x, y)
	return mgl32.Vec3{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}
}

// GradientColorMap blends from lush at full rainfall to dry at none.
func GradientColorMap(dry, lush color.NRGBA) *ColorMap {
	pixels := image.NewNRGBA(image.Rect(0, 0, COLOR_MAP_SIZE, COLOR_MAP_SIZE))
	for y := 0; y < COLOR_MAP_SIZE; y++ {
		for x := 0; x < COLOR_MAP_SIZE; x++ {
			f := 1 - float32(y)/float32(COLOR_MAP_SIZE-1)
			pixels.SetNRGBA(x, y, color.NRGBA{
				R: uint8(util.Mix(float32(dry.R), float32(lush.R), f)),
				G: uint8(util.Mix(float32(dry.G), float32(lush.G), f)),
				B: uint8(util.Mix(float32(dry.B), float32(lush.B), f)),
				A: 255,
			})
		}
	}
	return &ColorMap{pixels: pixels}
}

type MemoryBiomeRegistry struct {
	biomes  map[uint8]*Biome
	grass   *ColorMap
	foliage *ColorMap
}

func NewMemoryBiomeRegistry(grass, foliage *ColorMap) *MemoryBiomeRegistry {
	return &MemoryBiomeRegistry{biomes: make(map[uint8]*Biome), grass: grass, foliage: foliage}
}

func (r *MemoryBiomeRegistry) AddBiome(biome *Biome) {
	r.biomes[biome.ID] = biome
}

func (r *MemoryBiomeRegistry) Biome(id uint8) (*Biome, bool) {
	biome, ok := r.biomes[id]
	return biome, ok
}

func (r *MemoryBiomeRegistry) Tint(biome *Biome, tint TintType) mgl32.Vec3 {
	if biome == nil {
		return White
	}
	switch tint {
	case TintGrass:
		if biome.GrassColor != nil {
			return *biome.GrassColor
		}
		if r.grass != nil {
			return r.grass.Lookup(biome.Temperature, biome.Rainfall)
		}
	case TintFoliage:
		if biome.FoliageColor != nil {
			return *biome.FoliageColor
		}
		if r.foliage != nil {
			return r.foliage.Lookup(biome.Temperature, biome.Rainfall)
		}
	case TintWater:
		return biome.WaterColor
	}
	return White
}

// HexColor converts 0xRRGGBB to a colour vector.
func HexColor(rgb uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(rgb>>16&0xFF) / 255,
		float32(rgb>>8&0xFF) / 255,
		float32(rgb&0xFF) / 255,
	}
}
