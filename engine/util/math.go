package util

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

func Cos(x float32) float32 {
	return float32(math.Cos(float64(x)))
}

func Atan2(y, x float32) float32 {
	return float32(math.Atan2(float64(y), float64(x)))
}

func Round(x float32) float32 {
	return float32(math.Round(float64(x)))
}

func Max(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func Min(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func Mix(a, b, factor float32) float32 {
	return a*(1-factor) + factor*b
}

func Clamp(value, min, max float32) float32 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// SquaredDistance3D avoids the square root when only ordering matters.
func SquaredDistance3D(one, two mgl32.Vec3) float32 {
	d := one.Sub(two)
	return d.Dot(d)
}

// RotateAround rotates point by angle (radians) around center in the 2D plane.
func RotateAround(point, center mgl32.Vec2, angle float32) mgl32.Vec2 {
	return mgl32.Rotate2D(angle).Mul2x1(point.Sub(center)).Add(center)
}
