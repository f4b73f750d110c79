package main

import (
	"log"
	"os"

	"github.com/relabs-tech/spoofwatch/internal/app"
	"github.com/relabs-tech/spoofwatch/internal/config"
)

func main() {
	log.Println("starting spoofwatch calibration replay")

	path := config.DefaultPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if err := config.InitGlobal(path); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunCalibrate(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
