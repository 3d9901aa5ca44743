package main

import (
	"os"

	"github.com/rohitashwachaks/traderplusplus/cmd/traderpp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
