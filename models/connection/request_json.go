package connection

import (
	mb "github.com/saeidalz13/battleship-board/models/battleship"
)

type ReqCreateBoard struct {
	// Empty means the server fleet is used
	Placements []mb.Placement `json:"placements,omitempty"`

	// Accept a fleet that breaks the rules
	AllowFleetViolations bool `json:"allow_fleet_violations,omitempty"`
}

// Pointers tell a missing coordinate apart from 0
type ReqFire struct {
	Row    *int `json:"row"`
	Column *int `json:"column"`
}

func NewReqFire(row, column int) ReqFire {
	return ReqFire{Row: &row, Column: &column}
}
