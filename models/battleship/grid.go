package battleship

import "strings"

const GridSize int = 10

const (
	ValidLowerBound int = 0
	ValidUpperBound int = GridSize - 1
)

// Display symbols of a rendered grid
const (
	PositionStateWater  rune = '~'
	PositionStateIntact rune = '□'
	PositionStateHit    rune = '*'
	PositionStateSunk   rune = 'x'
)

type Coordinates struct {
	Row    int `json:"row" yaml:"row"`
	Column int `json:"column" yaml:"column"`
}

func NewCoordinates(row, column int) Coordinates {
	return Coordinates{Row: row, Column: column}
}

func (c Coordinates) InBounds() bool {
	return c.Row >= ValidLowerBound && c.Row <= ValidUpperBound &&
		c.Column >= ValidLowerBound && c.Column <= ValidUpperBound
}

// Reports whether other lies in the 3x3 neighbourhood centred on c.
// A coordinate touches itself.
func (c Coordinates) Touches(other Coordinates) bool {
	return abs(c.Row-other.Row) <= 1 && abs(c.Column-other.Column) <= 1
}

type Grid [][]rune

// Creates a new grid filled with water
func NewGrid() Grid {
	grid := make(Grid, GridSize)

	for i := 0; i < GridSize; i++ {
		grid[i] = make([]rune, GridSize)
		for j := 0; j < GridSize; j++ {
			grid[i][j] = PositionStateWater
		}
	}
	return grid
}

// Each row as a string of space separated symbols
func (g Grid) Rows() []string {
	rows := make([]string, len(g))
	for i, row := range g {
		symbols := make([]string, len(row))
		for j, symbol := range row {
			symbols[j] = string(symbol)
		}
		rows[i] = strings.Join(symbols, " ")
	}
	return rows
}

func (g Grid) String() string {
	return strings.Join(g.Rows(), "\n") + "\n"
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
