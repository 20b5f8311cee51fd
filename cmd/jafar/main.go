package main

import (
	"os"

	"jafar/cmd/jafar/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
