package battleship

import (
	cerr "github.com/saeidalz13/battleship-board/internal/error"
)

type ShipId int

type Deck struct {
	Coordinates
	alive bool
}

func (d *Deck) IsAlive() bool {
	return d.alive
}

type Ship struct {
	id     ShipId
	decks  []*Deck
	isSunk bool
}

// The placement must already be validated
func NewShip(id ShipId, placement Placement) *Ship {
	placement = placement.Normalized()
	ship := &Ship{
		id:    id,
		decks: make([]*Deck, 0, placement.Length()),
	}

	for row := placement.Start.Row; row <= placement.End.Row; row++ {
		for column := placement.Start.Column; column <= placement.End.Column; column++ {
			ship.decks = append(ship.decks, &Deck{Coordinates: NewCoordinates(row, column), alive: true})
		}
	}
	return ship
}

func (sh *Ship) Id() ShipId {
	return sh.id
}

func (sh *Ship) Length() int {
	return len(sh.decks)
}

func (sh *Ship) Decks() []*Deck {
	return sh.decks
}

func (sh *Ship) IsSunk() bool {
	return sh.isSunk
}

func (sh *Ship) DeckAt(c Coordinates) (*Deck, bool) {
	for _, deck := range sh.decks {
		if deck.Coordinates == c {
			return deck, true
		}
	}
	return nil, false
}

// Kills the deck at c. Firing at a dead deck changes nothing.
// An error means c is not one of this ship's decks, which the
// board never lets happen.
func (sh *Ship) Fire(c Coordinates) error {
	deck, ok := sh.DeckAt(c)
	if !ok {
		return cerr.ErrDeckNotInShip(c.Row, c.Column, int(sh.id))
	}
	deck.alive = false

	for _, d := range sh.decks {
		if d.alive {
			return nil
		}
	}
	sh.isSunk = true
	return nil
}

// Reports whether any deck of sh lies next to
// (or on) any deck of other, diagonals included.
func (sh *Ship) Touches(other *Ship) bool {
	for _, deck := range sh.decks {
		for _, otherDeck := range other.decks {
			if deck.Touches(otherDeck.Coordinates) {
				return true
			}
		}
	}
	return false
}
