//-------------------------------------------------------------------------
//
// retail-etl
//
// Copyright (c) 2025 - 2026, Retail Tools
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for retail-etl.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retailtools/retail-etl/internal/config"
	"github.com/retailtools/retail-etl/internal/logging"
	"github.com/retailtools/retail-etl/internal/report"
	"github.com/retailtools/retail-etl/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	logLevel   string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "retail-etl",
		Short: "Batch ETL and reporting for a static e-commerce order-line dataset",
		Long: `retail-etl loads a delimited e-commerce order-line dataset into
PostgreSQL, derives normalized customer/product/invoice relations from it,
and runs a fixed sequence of analytical reports with CSV export.

The pipeline is a single-pass batch: the raw store is a static snapshot,
every derived object is recreated idempotently with drop-and-recreate
semantics, and re-running the whole pipeline is the recovery strategy
for any failure.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./retail-etl.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(deriveCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportsCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List available reports",
	Long: `List the reports of the fixed analytical sequence. Every report is an
independent read over the raw store or the derived relations.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("Available reports:")
		cmd.Println()
		for _, def := range report.Definitions() {
			cmd.Println(fmt.Sprintf("  %-26s %-12s %s", def.Name, def.Kind, def.Description))
		}
	},
}
