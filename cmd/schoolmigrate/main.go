package main

import (
	"os"

	"github.com/plastinin/schoolmigrate/cmd/schoolmigrate/commands"
	"github.com/pterm/pterm"
)

func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		commands.PrintError(err)
		pterm.Println()
		os.Exit(1)
	}
}
