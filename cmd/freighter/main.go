package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			// Interrupted mid-run; the journal keeps the partial state, so
			// there is nothing useful to print.
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "freighter: %v\n", err)
		os.Exit(1)
	}
}
