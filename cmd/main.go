package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/saeidalz13/battleship-board/api"
	"github.com/saeidalz13/battleship-board/db"
	"github.com/saeidalz13/battleship-board/db/sqlc"
	"github.com/saeidalz13/battleship-board/internal/config"
	mb "github.com/saeidalz13/battleship-board/models/battleship"
	mc "github.com/saeidalz13/battleship-board/models/connection"
)

func main() {
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		panic(err)
	}

	fleet, err := config.DefaultFleet(cfg.FleetFile)
	if err != nil {
		panic(err)
	}

	// The configured fleet must make a valid board
	if _, err := mb.NewBoard(fleet); err != nil {
		panic(err)
	}

	opts := []api.Option{api.WithDefaultFleet(fleet)}
	if cfg.DatabaseUrl != "" {
		conn := db.MustConnectToDb(cfg.DatabaseUrl)
		defer conn.Close()
		opts = append(opts, api.WithQuerier(sqlc.New(conn)))
	} else {
		log.Println("DATABASE_URL is empty; analytics disabled")
	}

	bsm := mc.NewBattleshipSessionManager()
	go bsm.CleanupPeriodically()

	rp := api.NewRequestProcessor(bsm, mb.NewBattleshipBoardManager(), opts...)

	mux := http.NewServeMux()
	mux.Handle("GET /battleship", rp)

	log.Printf("Listening to port %d\n", cfg.Port)
	log.Fatalln(http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", cfg.Port), mux))
}
