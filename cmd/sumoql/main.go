package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/sumoql/sumoql/cmd/sumoql/cmd"
)

func main() {
	_ = godotenv.Load() // loads .env if present, silently ignores if not

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
