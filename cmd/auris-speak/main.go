package main

import (
	"os"

	"github.com/aurisproject/auris/cmd/auris-speak/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
