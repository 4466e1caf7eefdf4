package battleship

import (
	cerr "github.com/saeidalz13/battleship-board/internal/error"
)

const FleetShipCount int = 10

// Required number of ships per length
var FleetComposition = map[int]int{
	1: 4,
	2: 3,
	3: 2,
	4: 1,
}

var shipLengthNames = map[int]string{
	1: "single-deck",
	2: "double-deck",
	3: "three-deck",
	4: "four-deck",
}

// Checks the fleet against the official ruleset and returns
// an *InvalidFleetError listing every rule that is broken,
// or nil for a valid fleet.
func ValidateFleet(ships []*Ship) error {
	fleetErr := cerr.NewInvalidFleetError()

	if len(ships) != FleetShipCount {
		fleetErr.AddViolation("the total number of ships should be %d, got %d", FleetShipCount, len(ships))
	}

	counts := make(map[int]int, len(FleetComposition))
	for _, ship := range ships {
		counts[ship.Length()]++
	}
	for length := MinShipLength; length <= MaxShipLength; length++ {
		if counts[length] != FleetComposition[length] {
			fleetErr.AddViolation("there should be %d %s ship(s), got %d", FleetComposition[length], shipLengthNames[length], counts[length])
		}
	}

	// Every pair is compared once, so the outcome does
	// not depend on the order of the ships.
	for i := 0; i < len(ships); i++ {
		for j := i + 1; j < len(ships); j++ {
			if ships[i].Touches(ships[j]) {
				fleetErr.AddViolation("ships %d and %d shouldn't be located in neighbouring cells", ships[i].Id(), ships[j].Id())
			}
		}
	}

	return fleetErr.ErrorOrNil()
}
