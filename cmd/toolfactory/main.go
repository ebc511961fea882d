package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/moasq/toolfactory/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
