package main

import (
	"os"

	"snapkv/internal/cli"
)

func main() {
	os.Exit(cli.NewCLI(os.Stdout, os.Stderr, os.Stdin).Run(os.Args))
}
