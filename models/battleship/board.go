package battleship

import (
	"errors"
	"log"

	"github.com/google/uuid"
	cerr "github.com/saeidalz13/battleship-board/internal/error"
)

type ShotResult string

const (
	ShotResultMiss ShotResult = "Miss"
	ShotResultHit  ShotResult = "Hit"
	ShotResultSunk ShotResult = "Sunk"
)

type Board struct {
	uuid       string
	ships      []*Ship
	field      map[Coordinates]ShipId
	shotsFired int

	allowFleetViolations bool
	violations           []string
}

type BoardOption func(*Board)

// The caller accepts a board that breaks the fleet rules.
// Violations are logged and kept on the board instead of
// failing construction.
func WithFleetViolationsAllowed() BoardOption {
	return func(b *Board) {
		b.allowFleetViolations = true
	}
}

// Builds the ships and the coordinate index, then validates the fleet.
// Malformed or overlapping placements always fail with
// *InvalidPlacementError. A broken fleet fails with *InvalidFleetError
// unless WithFleetViolationsAllowed is given.
func NewBoard(placements []Placement, opts ...BoardOption) (*Board, error) {
	board := &Board{
		uuid:  uuid.NewString()[:6],
		ships: make([]*Ship, 0, len(placements)),
		field: make(map[Coordinates]ShipId, 20),
	}
	for _, opt := range opts {
		opt(board)
	}

	for i, placement := range placements {
		if err := placement.Validate(i); err != nil {
			return nil, err
		}

		ship := NewShip(ShipId(len(board.ships)), placement)
		for _, deck := range ship.Decks() {
			if otherId, prs := board.field[deck.Coordinates]; prs {
				return nil, cerr.NewInvalidPlacementError(i, "cell (%d, %d) is already taken by ship %d", deck.Row, deck.Column, otherId)
			}
			board.field[deck.Coordinates] = ship.Id()
		}
		board.ships = append(board.ships, ship)
	}

	if err := ValidateFleet(board.ships); err != nil {
		if !board.allowFleetViolations {
			return nil, err
		}

		var fleetErr *cerr.InvalidFleetError
		if errors.As(err, &fleetErr) {
			board.violations = fleetErr.Violations()
		}
		for _, violation := range board.violations {
			log.Printf("board %s: %s", board.uuid, violation)
		}
	}

	return board, nil
}

func (b *Board) Uuid() string {
	return b.uuid
}

func (b *Board) Ships() []*Ship {
	return b.ships
}

// Rules the fleet breaks; only non-empty for boards
// built WithFleetViolationsAllowed.
func (b *Board) Violations() []string {
	return b.violations
}

func (b *Board) ShotsFired() int {
	return b.shotsFired
}

func (b *Board) ShipAt(c Coordinates) (*Ship, bool) {
	id, prs := b.field[c]
	if !prs {
		return nil, false
	}
	return b.ships[id], true
}

// Resolves a shot. Coordinates no ship covers, including
// those outside the grid, are a miss.
func (b *Board) Fire(c Coordinates) ShotResult {
	b.shotsFired++

	ship, prs := b.ShipAt(c)
	if !prs {
		return ShotResultMiss
	}

	// The index only points at ships owning c
	if err := ship.Fire(c); err != nil {
		panic(err)
	}

	if ship.IsSunk() {
		return ShotResultSunk
	}
	return ShotResultHit
}

func (b *Board) SunkenShips() int {
	sunken := 0
	for _, ship := range b.ships {
		if ship.IsSunk() {
			sunken++
		}
	}
	return sunken
}

func (b *Board) IsDefeated() bool {
	return len(b.ships) > 0 && b.SunkenShips() == len(b.ships)
}

func (b *Board) Render() Grid {
	grid := NewGrid()

	for c, id := range b.field {
		ship := b.ships[id]
		deck, _ := ship.DeckAt(c)

		switch {
		case ship.IsSunk():
			grid[c.Row][c.Column] = PositionStateSunk
		case deck.IsAlive():
			grid[c.Row][c.Column] = PositionStateIntact
		default:
			grid[c.Row][c.Column] = PositionStateHit
		}
	}
	return grid
}
