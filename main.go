package main

import (
	"os"

	"github.com/texforge/mipgen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
