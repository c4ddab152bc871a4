// Command askdoc is the entry point for the askdoc question-answering
// pipeline. It provides a CLI interface (via Cobra) and an optional HTTP
// server for service use.
package main

import (
	"fmt"
	"os"

	"github.com/askdoc/askdoc-go/cmd/askdoc/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
