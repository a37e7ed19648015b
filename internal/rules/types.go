package rules

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidFEN is returned when a position string cannot be decoded.
	ErrInvalidFEN = errors.New("invalid FEN")
	// ErrInvalidSquare is returned for coordinates outside a1..h8.
	ErrInvalidSquare = errors.New("invalid square")
	// ErrInvalidMoveCode is returned for move codes that are not 4-5 characters of from+to(+promo).
	ErrInvalidMoveCode = errors.New("invalid move code")
)

// Color is a side.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// Other returns the opposing side.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// FarRank is the rank a pawn of this color promotes on.
func (c Color) FarRank() byte {
	if c == White {
		return '8'
	}
	return '1'
}

// ParseColor accepts "white"/"black" and the FEN letters "w"/"b".
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return White, fmt.Errorf("unknown color %q", s)
}

// PieceKind is the type of a piece without its color.
type PieceKind uint8

const (
	NoKind PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindLetters = map[PieceKind]byte{
	Pawn:   'p',
	Knight: 'n',
	Bishop: 'b',
	Rook:   'r',
	Queen:  'q',
	King:   'k',
}

// Letter returns the lower-case letter used in move codes and FEN.
func (k PieceKind) Letter() byte {
	return kindLetters[k]
}

func (k PieceKind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	}
	return "none"
}

// Piece is a colored piece standing on a square.
type Piece struct {
	Color Color
	Kind  PieceKind
}

// Symbol returns the FEN letter, upper case for white.
func (p Piece) Symbol() string {
	l := p.Kind.Letter()
	if l == 0 {
		return ""
	}
	if p.Color == White {
		l -= 'a' - 'A'
	}
	return string(l)
}

// Square is a board coordinate such as "e4".
type Square string

// ParseSquare validates and normalizes a coordinate.
func ParseSquare(s string) (Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return "", fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	return Square(s), nil
}

// SquareAt builds a square from zero-based file and rank indexes.
func SquareAt(file, rank int) Square {
	return Square([]byte{byte('a' + file), byte('1' + rank)})
}

// Valid reports whether the square lies on the board.
func (s Square) Valid() bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

// File returns the file letter.
func (s Square) File() byte { return s[0] }

// Rank returns the rank digit.
func (s Square) Rank() byte { return s[1] }

// Move is a from/to pair with an optional promotion kind.
type Move struct {
	From      Square
	To        Square
	Promotion PieceKind
}

// Code serializes the move as a 4-5 character move code.
func (m Move) Code() string {
	code := string(m.From) + string(m.To)
	if l := m.Promotion.Letter(); l != 0 {
		code += string(l)
	}
	return code
}

// ParseMoveCode decodes "e2e4" or "e7e8q".
func ParseMoveCode(code string) (Move, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if len(code) != 4 && len(code) != 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidMoveCode, code)
	}
	from, err := ParseSquare(code[:2])
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidMoveCode, code)
	}
	to, err := ParseSquare(code[2:4])
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidMoveCode, code)
	}
	m := Move{From: from, To: to}
	if len(code) == 5 {
		switch code[4] {
		case 'q':
			m.Promotion = Queen
		case 'r':
			m.Promotion = Rook
		case 'b':
			m.Promotion = Bishop
		case 'n':
			m.Promotion = Knight
		default:
			return Move{}, fmt.Errorf("%w: %q", ErrInvalidMoveCode, code)
		}
	}
	return m, nil
}
