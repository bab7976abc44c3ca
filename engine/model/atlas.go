package model

import (
	"image"
	"image/png"
	"os"
	"path"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stackotter/delta-client-sub000/engine/util"
	"golang.org/x/image/draw"
)

const (
	ATLAS_SIZE = 256
	TILE_SIZE  = 16
	// tiles per atlas row
	ATLAS_TILES = ATLAS_SIZE / TILE_SIZE
)

// CalculateCornerUVs turns a face uv rectangle {u0, v0, u1, v1} in sixteenths
// into the four corner uvs, bottom left first, rotated by a multiple of 90 degrees.
func CalculateCornerUVs(uv [4]float32, rotation int) [4]mgl32.Vec2 {
	u0, v0, u1, v1 := uv[0]/16, uv[1]/16, uv[2]/16, uv[3]/16
	corners := [4]mgl32.Vec2{{u0, v1}, {u1, v1}, {u1, v0}, {u0, v0}}
	shift := ((rotation/90)%4 + 4) % 4
	var result [4]mgl32.Vec2
	for i := range result {
		result[i] = corners[(i+shift)%4]
	}
	return result
}

// TexturePalette maps texture identifiers to array texture layers and
// optionally keeps an atlas image with one 16x16 tile per layer.
type TexturePalette struct {
	identifiers []string
	indices     map[string]int
	atlas       *image.NRGBA
}

// NewTexturePalette sorts the identifiers so indices do not depend on input order.
func NewTexturePalette(identifiers []string) *TexturePalette {
	sorted := append([]string(nil), identifiers...)
	sort.Strings(sorted)
	p := &TexturePalette{indices: make(map[string]int, len(sorted))}
	for _, id := range sorted {
		if _, ok := p.indices[id]; ok {
			continue
		}
		p.indices[id] = len(p.identifiers)
		p.identifiers = append(p.identifiers, id)
	}
	return p
}

// LoadTexturePalette reads <directory>/<identifier>.png for every identifier into an atlas.
// Missing or broken files keep their index and leave the tile empty.
func LoadTexturePalette(directory string, identifiers []string) (*TexturePalette, error) {
	p := NewTexturePalette(identifiers)
	if len(p.identifiers) > ATLAS_TILES*ATLAS_TILES {
		return nil, errors.Errorf("%d textures do not fit in a %dpx atlas", len(p.identifiers), ATLAS_SIZE)
	}
	p.atlas = image.NewNRGBA(image.Rect(0, 0, ATLAS_SIZE, ATLAS_SIZE))
	for index, id := range p.identifiers {
		texturePath := path.Join(directory, id+".png")
		img, err := loadImage(texturePath)
		if err != nil {
			util.LogTextureWarning("could not load texture", "texture", id, "path", texturePath, "err", err)
			continue
		}
		p.SetTile(index, img)
		util.LogTextureDebug("atlas tile", "index", index, "texture", id)
	}
	return p, nil
}

func loadImage(filename string) (image.Image, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	return img, err
}

// SetTile copies img into the tile of index, scaling animated strips and
// high resolution textures down to one 16x16 frame.
func (p *TexturePalette) SetTile(index int, img image.Image) {
	if p.atlas == nil {
		p.atlas = image.NewNRGBA(image.Rect(0, 0, ATLAS_SIZE, ATLAS_SIZE))
	}
	bounds := img.Bounds()
	// animated textures stack frames vertically
	frame := image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+bounds.Dx())
	if frame.Max.Y > bounds.Max.Y {
		frame.Max.Y = bounds.Max.Y
	}
	draw.NearestNeighbor.Scale(p.atlas, p.tileRect(index), img, frame, draw.Src, nil)
}

func (p *TexturePalette) tileRect(index int) image.Rectangle {
	x := (index % ATLAS_TILES) * TILE_SIZE
	y := (index / ATLAS_TILES) * TILE_SIZE
	return image.Rect(x, y, x+TILE_SIZE, y+TILE_SIZE)
}

func (p *TexturePalette) TextureIndex(identifier string) (int, bool) {
	index, ok := p.indices[identifier]
	return index, ok
}

func (p *TexturePalette) Identifier(index int) string {
	if index < 0 || index >= len(p.identifiers) {
		return ""
	}
	return p.identifiers[index]
}

func (p *TexturePalette) Count() int {
	return len(p.identifiers)
}

func (p *TexturePalette) Atlas() *image.NRGBA {
	return p.atlas
}

// AtlasUV maps a uv inside a texture to the texture's tile in the atlas.
func (p *TexturePalette) AtlasUV(index int, uv mgl32.Vec2) mgl32.Vec2 {
	tile := p.tileRect(index)
	return mgl32.Vec2{
		(float32(tile.Min.X) + uv.X()*TILE_SIZE) / ATLAS_SIZE,
		(float32(tile.Min.Y) + uv.Y()*TILE_SIZE) / ATLAS_SIZE,
	}
}

func (p *TexturePalette) SaveAtlasPNG(filename string) error {
	if p.atlas == nil {
		return errors.New("palette has no atlas")
	}
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "creating atlas file")
	}
	defer file.Close()
	return errors.Wrap(png.Encode(file, p.atlas), "encoding atlas")
}
