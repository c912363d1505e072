package main

import (
	"os"

	"github.com/EdwinGH/TeslaPriceBasedCharging/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
