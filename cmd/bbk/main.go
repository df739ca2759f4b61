package main

import (
	"os"

	"github.com/bnema/bilibackup/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
