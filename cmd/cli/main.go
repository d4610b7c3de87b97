package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "timelinectl",
	Short: "Timeline core management CLI",
	Long: `A CLI tool for operating the ranked-timeline core.

This tool allows you to:
  - View and change configuration (cache sizes, page size, server port)
  - Seed the database with a synthetic social graph
  - Benchmark the General/For-You/Following entry points
  - View benchmark results`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
