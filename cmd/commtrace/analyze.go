package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/commtrace/internal/analyzer"
	"github.com/fyrsmithlabs/commtrace/internal/config"
	"github.com/fyrsmithlabs/commtrace/internal/logging"
	"github.com/fyrsmithlabs/commtrace/internal/orchestrator"
	"github.com/fyrsmithlabs/commtrace/internal/records"
	"github.com/fyrsmithlabs/commtrace/pkg/cache"
)

var (
	timestampCol    string
	counterpartyCol string
	directionCol    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a CSV communication log",
	Long: `Analyze a CSV communication log and print the composite report as JSON.

The CSV needs a header row with timestamp, counterparty, and direction
columns; use the column flags when the source names them differently.

Examples:
  # Analyze a log
  commtrace analyze messages.csv

  # Analyze from stdin with custom column names
  cat export.csv | commtrace analyze - --timestamp-col time --direction-col msg_type`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&timestampCol, "timestamp-col", "timestamp", "timestamp column name")
	analyzeCmd.Flags().StringVar(&counterpartyCol, "counterparty-col", "counterparty", "counterparty column name")
	analyzeCmd.Flags().StringVar(&directionCol, "direction-col", "direction", "direction column name")
}

// runAnalyze handles the analyze command
func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	input := os.Stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		input = f
	}

	table, err := records.LoadCSV(input, records.FieldMap{
		Timestamp:    timestampCol,
		Counterparty: counterpartyCol,
		Direction:    directionCol,
	})
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	engine := analyzer.New(analyzerConfig(cfg), logger, analyzer.WithCache(newCache(cfg)))
	report := orchestrator.New(engine, logger).Run(cmd.Context(), table)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func analyzerConfig(cfg *config.Config) analyzer.Config {
	return analyzer.Config{
		ConversationTimeout: cfg.Analysis.ConversationTimeout,
		CounterpartyTimeout: cfg.Analysis.CounterpartyTimeout,
		QuickThreshold:      cfg.Analysis.QuickThreshold,
		DelayedThreshold:    cfg.Analysis.DelayedThreshold,
		BalanceLow:          cfg.Analysis.BalanceLow,
		BalanceHigh:         cfg.Analysis.BalanceHigh,
	}
}

func newCache(cfg *config.Config) cache.Store {
	if !cfg.Cache.Enabled {
		return cache.Nop{}
	}
	return cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries)
}
