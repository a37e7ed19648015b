package rules

// The chess library keeps its check flag private, so check status is derived from the
// board with a plain attack scan.

var (
	knightJumps = [8][2]int{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
	straightRay = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonalRay = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// KingSquare scans the board for the king of color c.
func (p Position) KingSquare(c Color) (Square, bool) {
	g := p.grid()
	f, r, ok := findKing(&g, c)
	if !ok {
		return "", false
	}
	return SquareAt(f, r), true
}

// InCheck reports whether the king of color c is attacked.
func (p Position) InCheck(c Color) bool {
	g := p.grid()
	f, r, ok := findKing(&g, c)
	if !ok {
		return false
	}
	return attacked(&g, f, r, c.Other())
}

func findKing(g *[8][8]Piece, c Color) (int, int, bool) {
	for f := 0; f < 8; f++ {
		for r := 0; r < 8; r++ {
			if pc := g[f][r]; pc.Kind == King && pc.Color == c {
				return f, r, true
			}
		}
	}
	return 0, 0, false
}

func onBoard(f, r int) bool { return f >= 0 && f < 8 && r >= 0 && r < 8 }

func attacked(g *[8][8]Piece, f, r int, by Color) bool {
	is := func(ff, rr int, kinds ...PieceKind) bool {
		if !onBoard(ff, rr) {
			return false
		}
		pc := g[ff][rr]
		if pc.Kind == NoKind || pc.Color != by {
			return false
		}
		for _, k := range kinds {
			if pc.Kind == k {
				return true
			}
		}
		return false
	}

	// pawns attack toward the opponent, so look one rank back from their direction
	dir := -1
	if by == Black {
		dir = 1
	}
	if is(f-1, r+dir, Pawn) || is(f+1, r+dir, Pawn) {
		return true
	}
	for _, j := range knightJumps {
		if is(f+j[0], r+j[1], Knight) {
			return true
		}
	}
	for df := -1; df <= 1; df++ {
		for dr := -1; dr <= 1; dr++ {
			if (df != 0 || dr != 0) && is(f+df, r+dr, King) {
				return true
			}
		}
	}
	slide := func(rays [4][2]int, kinds ...PieceKind) bool {
		for _, d := range rays {
			ff, rr := f+d[0], r+d[1]
			for onBoard(ff, rr) {
				if g[ff][rr].Kind != NoKind {
					if is(ff, rr, kinds...) {
						return true
					}
					break
				}
				ff += d[0]
				rr += d[1]
			}
		}
		return false
	}
	return slide(straightRay, Rook, Queen) || slide(diagonalRay, Bishop, Queen)
}
