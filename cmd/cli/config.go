package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/ritik/timeline-core/internal/config"
	"github.com/spf13/cobra"
)

var configFile string

func init() {
	configCmd.PersistentFlags().StringVarP(&configFile, "file", "f", "config.json", "Config file path")

	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify configuration settings for the timeline core.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()

		if _, err := os.Stat(configFile); err == nil {
			cfg.LoadFromFile(configFile)
		}

		fmt.Println("Current Configuration:")
		fmt.Println("======================")
		fmt.Printf("Server Port:          %s\n", cfg.ServerPort)
		fmt.Printf("PostgreSQL Host:      %s:%s\n", cfg.PostgresHost, cfg.PostgresPort)
		fmt.Printf("PostgreSQL Database:  %s\n", cfg.PostgresDB)
		fmt.Printf("Redis Host:           %s:%s\n", cfg.RedisHost, cfg.RedisPort)
		fmt.Println()
		fmt.Println("Cache Settings:")
		fmt.Printf("  In-process cache capacity: %d viewers\n", cfg.InProcessCacheCapacity)
		fmt.Printf("  Timeline cache TTL:        %d minutes\n", cfg.TimelineCacheTTLMinutes)
		fmt.Println()
		fmt.Println("Pipeline Settings:")
		fmt.Printf("  Default page size:     %d\n", cfg.DefaultPageSize)
		fmt.Printf("  Request deadline:      %d seconds\n", cfg.RequestDeadlineSeconds)
		fmt.Println()
		fmt.Println("Admission Settings:")
		fmt.Printf("  Default RPM:           %d\n", cfg.DefaultRPM)
		fmt.Printf("  Default burst:         %d\n", cfg.DefaultBurst)
		fmt.Println()
		fmt.Println("Benchmark Settings:")
		fmt.Printf("  Default requests:      %d\n", cfg.BenchmarkRequests)
		fmt.Printf("  Default concurrent:    %d\n", cfg.BenchmarkConcurrent)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()

		if _, err := os.Stat(configFile); err == nil {
			cfg.LoadFromFile(configFile)
		}

		key := args[0]
		var value interface{}

		switch key {
		case "in-process-cache-capacity", "in_process_cache_capacity":
			value = cfg.InProcessCacheCapacity
		case "timeline-cache-ttl-minutes", "timeline_cache_ttl_minutes":
			value = cfg.TimelineCacheTTLMinutes
		case "default-page-size", "default_page_size":
			value = cfg.DefaultPageSize
		case "default-rpm", "default_rpm":
			value = cfg.DefaultRPM
		case "server-port", "server_port":
			value = cfg.ServerPort
		case "postgres-host", "postgres_host":
			value = cfg.PostgresHost
		case "redis-host", "redis_host":
			value = cfg.RedisHost
		default:
			fmt.Printf("Unknown config key: %s\n", key)
			fmt.Println("\nAvailable keys:")
			fmt.Println("  in-process-cache-capacity")
			fmt.Println("  timeline-cache-ttl-minutes")
			fmt.Println("  default-page-size")
			fmt.Println("  default-rpm")
			fmt.Println("  server-port")
			fmt.Println("  postgres-host")
			fmt.Println("  redis-host")
			os.Exit(1)
		}

		fmt.Printf("%s = %v\n", key, value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()

		if _, err := os.Stat(configFile); err == nil {
			cfg.LoadFromFile(configFile)
		}

		key := args[0]
		valueStr := args[1]

		switch key {
		case "in-process-cache-capacity", "in_process_cache_capacity":
			value, err := strconv.Atoi(valueStr)
			if err != nil {
				fmt.Printf("Invalid value for %s: %s (must be integer)\n", key, valueStr)
				os.Exit(1)
			}
			cfg.InProcessCacheCapacity = value

		case "timeline-cache-ttl-minutes", "timeline_cache_ttl_minutes":
			value, err := strconv.Atoi(valueStr)
			if err != nil {
				fmt.Printf("Invalid value for %s: %s (must be integer)\n", key, valueStr)
				os.Exit(1)
			}
			cfg.TimelineCacheTTLMinutes = value

		case "default-page-size", "default_page_size":
			value, err := strconv.Atoi(valueStr)
			if err != nil {
				fmt.Printf("Invalid value for %s: %s (must be integer)\n", key, valueStr)
				os.Exit(1)
			}
			cfg.DefaultPageSize = value

		case "server-port", "server_port":
			cfg.ServerPort = valueStr

		default:
			fmt.Printf("Unknown or read-only config key: %s\n", key)
			os.Exit(1)
		}

		if err := cfg.SaveToFile(configFile); err != nil {
			fmt.Printf("Failed to save config: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Set %s = %s\n", key, valueStr)
		fmt.Printf("Config saved to %s\n", configFile)
	},
}

// printConfigJSON pretty-prints the config as JSON.
func printConfigJSON(cfg *config.Config) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
