package main

import (
	"flag"
	"log"

	"github.com/aussiebroadwan/quill/internal/devapi/app"
)

func main() {
	envFile := flag.String("env-file", ".env.devapi", "optional dotenv file loaded before reading the environment")
	flag.Parse()

	cfg, err := app.LoadConfig(*envFile)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
