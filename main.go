package main

import (
	"fmt"
	"os"

	"maharajah/cmd"
	"maharajah/internal/apperr"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(apperr.ExitCode(err))
	}
}
