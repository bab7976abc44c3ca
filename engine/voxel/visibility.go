package voxel

// ConnectivityLookup returns false for sections that are not loaded.
type ConnectivityLookup func(position SectionPosition) (SectionConnectivity, bool)

type visibilityStep struct {
	position     SectionPosition
	connectivity SectionConnectivity
	entered      Direction
	hasEntered   bool
	travelled    DirectionSet
}

// VisibleSections walks outwards from start breadth first. A section is
// left only through faces connected to the face it was entered by, and
// never back against a direction already travelled. The result starts with
// start and is ordered by search depth.
func VisibleSections(start SectionPosition, lookup ConnectivityLookup, maxDistance int32) []SectionPosition {
	visited := map[SectionPosition]struct{}{start: {}}
	queue := []visibilityStep{{position: start, connectivity: FullyOpenConnectivity}}
	result := make([]SectionPosition, 0, 64)
	origin := start.Origin()

	for head := 0; head < len(queue); head++ {
		current := queue[head]
		result = append(result, current.position)
		for _, d := range AllDirections {
			if current.travelled.Has(d.Opposite()) {
				continue
			}
			if current.hasEntered && !current.connectivity.IsConnected(current.entered, d) {
				continue
			}
			next := current.position.Neighbour(d)
			if !next.IsValid() {
				continue
			}
			if ChebyshevDistance2(next.Origin(), origin) > maxDistance*SECTION_SIZE {
				continue
			}
			if _, seen := visited[next]; seen {
				continue
			}
			connectivity, ok := lookup(next)
			if !ok {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, visibilityStep{
				position:     next,
				connectivity: connectivity,
				entered:      d.Opposite(),
				hasEntered:   true,
				travelled:    current.travelled.Add(d),
			})
		}
	}
	return result
}
