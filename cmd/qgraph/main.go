package main

import (
	"fmt"
	"os"

	"questionnaire-builder/interfaces/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
