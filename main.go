package main

import (
	"fmt"
	"log"

	mb "github.com/saeidalz13/battleship-board/models/battleship"
)

func main() {
	board, err := mb.NewBoard(mb.CanonicalFleet())
	if err != nil {
		log.Fatalln(err)
	}
	fmt.Print(board.Render())

	// Miss, then sink the four-deck ship from its tail
	shots := []mb.Coordinates{
		mb.NewCoordinates(0, 4),
		mb.NewCoordinates(0, 3),
		mb.NewCoordinates(0, 2),
		mb.NewCoordinates(0, 1),
		mb.NewCoordinates(0, 0),
	}
	for _, shot := range shots {
		fmt.Printf("%s! ", board.Fire(shot))
	}
	fmt.Println()

	fmt.Print(board.Render())
}
