package voxel

import "strings"

type Direction uint8

const (
	Down Direction = iota
	Up
	North
	South
	West
	East
)

var AllDirections = [6]Direction{Down, Up, North, South, West, East}

// HorizontalDirections in the order used for fluid side faces.
var HorizontalDirections = [4]Direction{North, East, South, West}

func (d Direction) Opposite() Direction {
	switch d {
	case Down:
		return Up
	case Up:
		return Down
	case North:
		return South
	case South:
		return North
	case West:
		return East
	}
	return West
}

func (d Direction) Offset() Int3 {
	switch d {
	case Down:
		return Int3{Y: -1}
	case Up:
		return Int3{Y: 1}
	case North:
		return Int3{Z: -1}
	case South:
		return Int3{Z: 1}
	case West:
		return Int3{X: -1}
	}
	return Int3{X: 1}
}

func (d Direction) IsHorizontal() bool {
	return d >= North
}

func (d Direction) String() string {
	switch d {
	case Down:
		return "down"
	case Up:
		return "up"
	case North:
		return "north"
	case South:
		return "south"
	case West:
		return "west"
	case East:
		return "east"
	}
	return "invalid"
}

func ParseDirection(name string) (Direction, bool) {
	for _, d := range AllDirections {
		if d.String() == name {
			return d, true
		}
	}
	return 0, false
}

// DirectionSet is a bitset over the six directions.
type DirectionSet uint8

const (
	NoDirections     DirectionSet = 0
	AllDirectionsSet DirectionSet = 1<<6 - 1
)

func NewDirectionSet(directions ...Direction) DirectionSet {
	var s DirectionSet
	for _, d := range directions {
		s = s.Add(d)
	}
	return s
}

func (s DirectionSet) Has(d Direction) bool {
	return s&(1<<d) != 0
}

func (s DirectionSet) Add(d Direction) DirectionSet {
	return s | 1<<d
}

func (s DirectionSet) Remove(d Direction) DirectionSet {
	return s &^ (1 << d)
}

func (s DirectionSet) Union(other DirectionSet) DirectionSet {
	return s | other
}

func (s DirectionSet) Subtract(other DirectionSet) DirectionSet {
	return s &^ other
}

func (s DirectionSet) IsEmpty() bool {
	return s == 0
}

func (s DirectionSet) IsSupersetOf(other DirectionSet) bool {
	return s&other == other
}

func (s DirectionSet) Count() int {
	count := 0
	for _, d := range AllDirections {
		if s.Has(d) {
			count++
		}
	}
	return count
}

func (s DirectionSet) Directions() []Direction {
	result := make([]Direction, 0, 6)
	for _, d := range AllDirections {
		if s.Has(d) {
			result = append(result, d)
		}
	}
	return result
}

func (s DirectionSet) String() string {
	names := make([]string, 0, 6)
	for _, d := range s.Directions() {
		names = append(names, d.String())
	}
	return "[" + strings.Join(names, ",") + "]"
}
