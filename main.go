package main

import (
	"os"

	"github.com/milka-trade/OldFashionedPeople-sub001/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
