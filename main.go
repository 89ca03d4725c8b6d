package main

import (
	"context"
	"os"

	"erd/cli"
	"erd/prompts"
)

func main() {
	if err := cli.Run(context.Background(), os.Getenv); err != nil {
		prompts.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
