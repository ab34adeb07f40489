package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cei-crawler/internal/trace"
)

var (
	configPath string
	format     string
	outputDir  string
	save       bool
)

var rootCmd = &cobra.Command{
	Use:           "cei",
	Short:         "cei extracts trades and passive incomes from the CEI brokerage portal.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeSystem()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&format, "format", "", "output format: table, json or csv (default from config)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output", "", "save the extract into this directory instead of printing it")
	rootCmd.PersistentFlags().BoolVar(&save, "save", false, "save the extract into the configured output directory")

	rootCmd.AddCommand(brokersCmd, assetsCmd, incomesCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	_ = trace.Shutdown(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
