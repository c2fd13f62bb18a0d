package engine

// CountKind counts the cells of a given kind on the board
func CountKind(b *Board, kind TileKind) int {
	return len(b.Find(kind))
}

// ManhattanDistance calculates the Manhattan distance between two cells
func ManhattanDistance(from, to Cell) int {
	dr := from.Row - to.Row
	if dr < 0 {
		dr = -dr
	}
	dc := from.Col - to.Col
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// FindNearestStar returns the star closest to from by Manhattan distance
func FindNearestStar(b *Board, from Cell) (Cell, int, bool) {
	minDistance := -1
	var nearest Cell
	for _, star := range b.Find(Star) {
		distance := ManhattanDistance(from, star)
		if minDistance == -1 || distance < minDistance {
			minDistance = distance
			nearest = star
		}
	}
	return nearest, minDistance, minDistance >= 0
}

// KindCounts tallies every tile kind on the board
func KindCounts(b *Board) map[TileKind]int {
	counts := make(map[TileKind]int, len(tileKindNames))
	for _, row := range b.Kinds() {
		for _, kind := range row {
			counts[kind]++
		}
	}
	return counts
}
