package main

import (
	"os"

	"github.com/Aden1ke/Thera/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
