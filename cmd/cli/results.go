package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ritik/timeline-core/internal/models"
	"github.com/spf13/cobra"
)

var (
	resultsFormat string
	resultsInput  string
)

func init() {
	resultsCmd.Flags().StringVar(&resultsFormat, "format", "table", "Output format (table, json)")
	resultsCmd.Flags().StringVar(&resultsInput, "input", "benchmark_results.json", "Input file with benchmark results")

	rootCmd.AddCommand(resultsCmd)
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "View benchmark results",
	Long:  `Display benchmark results from a previous run.`,
	Run:   runResults,
}

func runResults(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(resultsInput)
	if err != nil {
		fmt.Printf("Failed to read results file: %v\n", err)
		fmt.Println("   Run 'timelinectl benchmark --output benchmark_results.json' first")
		os.Exit(1)
	}

	var results []models.BenchmarkResultJSON
	if err := json.Unmarshal(data, &results); err != nil {
		fmt.Printf("Failed to parse results: %v\n", err)
		os.Exit(1)
	}

	switch resultsFormat {
	case "json":
		printResultsJSON(results)
	case "table":
		printResultsTable(results)
	default:
		fmt.Printf("Unknown format: %s\n", resultsFormat)
		os.Exit(1)
	}
}

func printResultsJSON(results []models.BenchmarkResultJSON) {
	data, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(data))
}

func printResultsTable(results []models.BenchmarkResultJSON) {
	fmt.Println()
	fmt.Println("=======================================================================")
	fmt.Println("                           BENCHMARK RESULTS                           ")
	fmt.Println("=======================================================================")
	fmt.Println()

	for _, r := range results {
		fmt.Printf("Entry point: %s\n", r.EntryPoint)
		fmt.Println("-----------------------------------------------------------------------")
		fmt.Printf("  Total Requests:   %d\n", r.TotalRequests)
		fmt.Printf("  Duration:         %s\n", r.Duration)
		fmt.Println()
		fmt.Println("  Latency:")
		fmt.Printf("    P50: %s\n", r.LatencyP50)
		fmt.Printf("    P95: %s\n", r.LatencyP95)
		fmt.Printf("    P99: %s\n", r.LatencyP99)
		fmt.Printf("    Avg: %s\n", r.LatencyAvg)
		fmt.Println()
		fmt.Printf("  Throughput:     %.1f req/sec\n", r.Throughput)
		fmt.Printf("  Cache Hit Rate: %.1f%%\n", r.CacheHitRate*100)
		fmt.Println()
	}

	if len(results) > 1 {
		fmt.Println("=======================================================================")
		fmt.Println("                              COMPARISON                               ")
		fmt.Println("=======================================================================")
		fmt.Println()
		fmt.Printf("%-12s | %-12s | %-12s | %-12s\n", "Entry point", "P95", "P99", "Req/s")
		fmt.Println("-------------+--------------+--------------+-------------")

		for _, r := range results {
			fmt.Printf("%-12s | %-12s | %-12s | %-12.0f\n",
				r.EntryPoint,
				r.LatencyP95,
				r.LatencyP99,
				r.Throughput,
			)
		}
		fmt.Println()
	}
}
