package main

import (
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/clipvault/clipvault/internal/cli"
)

func main() {
	// Parse command-line arguments
	var args cli.Args
	parser := arg.MustParse(&args)

	// Default behavior with no subcommand: list recent entries
	if args.Watch == nil && args.List == nil && args.Search == nil &&
		args.Get == nil && args.Copy == nil && args.Delete == nil && args.Clear == nil {
		args.List = &cli.ListCmd{Limit: 20}
	}

	cliHandler, err := cli.NewWithArgs(&args)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer cliHandler.Close()

	if err := cliHandler.Execute(&args); err != nil {
		fmt.Printf("Error: %v\n", err)
		fmt.Println()
		parser.WriteUsage(os.Stderr)
		os.Exit(1)
	}
}
