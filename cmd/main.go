package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/navalclash/battleship-server/api"
	"github.com/navalclash/battleship-server/db"
)

func main() {
	if os.Getenv("STAGE") != api.StageProd {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("no .env file loaded:", err)
		}
	}

	stage := os.Getenv("STAGE")
	if stage == "" {
		stage = api.StageDev
	}

	opts := []api.Option{api.WithStage(stage)}

	if port := os.Getenv("PORT"); port != "" {
		opts = append(opts, api.WithPort(port))
	}
	if wsPort := os.Getenv("WS_PORT"); wsPort != "" {
		opts = append(opts, api.WithWsPort(wsPort))
	}
	if rawTimeout := os.Getenv("PLACEMENT_TIMEOUT_SECONDS"); rawTimeout != "" {
		seconds, err := strconv.Atoi(rawTimeout)
		if err != nil {
			panic(err)
		}
		opts = append(opts, api.WithPlacementTimeout(time.Duration(seconds)*time.Second))
	}

	// Analytics counters are optional; without DATABASE_URL the
	// server runs with no persistence at all.
	if psqlUrl := os.Getenv("DATABASE_URL"); psqlUrl != "" {
		opts = append(opts, api.WithDb(db.MustConnectToDb(psqlUrl)))
	}

	server := api.NewServer(opts...)
	log.Fatalln(server.Run())
}
