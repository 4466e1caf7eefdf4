package battleship

import (
	cerr "github.com/saeidalz13/battleship-board/internal/error"
)

const (
	MinShipLength int = 1
	MaxShipLength int = 4
)

// A placement is the inclusive range a ship covers,
// from Start to End on a single row or column.
type Placement struct {
	Start Coordinates `json:"start" yaml:"start"`
	End   Coordinates `json:"end" yaml:"end"`
}

func NewPlacement(startRow, startColumn, endRow, endColumn int) Placement {
	return Placement{
		Start: NewCoordinates(startRow, startColumn),
		End:   NewCoordinates(endRow, endColumn),
	}
}

// Orders Start before End, so (0, 3)-(0, 0) and
// (0, 0)-(0, 3) describe the same ship.
func (p Placement) Normalized() Placement {
	if p.End.Row < p.Start.Row || p.End.Column < p.Start.Column {
		return Placement{Start: p.End, End: p.Start}
	}
	return p
}

// index is only used to point the caller at the
// offending entry of the placement list.
func (p Placement) Validate(index int) error {
	if !p.Start.InBounds() {
		return cerr.NewInvalidPlacementError(index, "start (%d, %d) is out of grid bound", p.Start.Row, p.Start.Column)
	}
	if !p.End.InBounds() {
		return cerr.NewInvalidPlacementError(index, "end (%d, %d) is out of grid bound", p.End.Row, p.End.Column)
	}
	if p.Start.Row != p.End.Row && p.Start.Column != p.End.Column {
		return cerr.NewInvalidPlacementError(index, "ship must lie on a single row or column")
	}

	length := p.Length()
	if length < MinShipLength || length > MaxShipLength {
		return cerr.NewInvalidPlacementError(index, "ship length %d is not between %d and %d", length, MinShipLength, MaxShipLength)
	}
	return nil
}

// Only meaningful for a validated placement
func (p Placement) Length() int {
	n := p.Normalized()
	return (n.End.Row - n.Start.Row) + (n.End.Column - n.Start.Column) + 1
}

// The demo layout: one four-deck, two three-deck,
// three double-deck and four single-deck ships.
func CanonicalFleet() []Placement {
	return []Placement{
		NewPlacement(0, 0, 0, 3),
		NewPlacement(0, 5, 0, 6),
		NewPlacement(0, 8, 0, 9),
		NewPlacement(2, 0, 4, 0),
		NewPlacement(2, 4, 2, 6),
		NewPlacement(2, 8, 2, 9),
		NewPlacement(9, 9, 9, 9),
		NewPlacement(7, 7, 7, 7),
		NewPlacement(7, 9, 7, 9),
		NewPlacement(9, 7, 9, 7),
	}
}
