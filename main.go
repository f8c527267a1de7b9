package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A .env file in the working directory supplies SHP_* credentials.
	// Variables already set in the environment win.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errRefused) {
			os.Exit(1)
		}

		exitOnError(err)
	}
}
