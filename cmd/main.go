package main

import (
	"os"

	"github.com/inklore/inklore/cmd/inklore"
)

func main() {
	if err := inklore.Execute(); err != nil {
		os.Exit(1)
	}
}
