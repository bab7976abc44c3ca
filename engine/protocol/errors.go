package protocol

import "github.com/pkg/errors"

// Structural decode errors. The whole packet is unusable when one of these is returned.
var (
	ErrLongArrayTooShort  = errors.New("packed long array too short")
	ErrBitsPerValue       = errors.New("bits per value out of range")
	ErrPaletteIndex       = errors.New("palette index out of range")
	ErrSectionMask        = errors.New("section mask out of range")
	ErrLightArrayMismatch = errors.New("light arrays do not match light mask")
	ErrInvalidLength      = errors.New("invalid length prefix")
)
