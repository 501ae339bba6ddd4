package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agenthands/aurehal/internal/config"
	"github.com/agenthands/aurehal/internal/core"
	"github.com/agenthands/aurehal/internal/core/model"
	"github.com/agenthands/aurehal/internal/driver"
)

var (
	direction  string
	configPath string
	workers    int
	output     string
	timeout    time.Duration

	rootCmd = &cobra.Command{
		Use:   "harvest <structure-id>",
		Short: "Crawl the HAL structure network from one structure and print every node found",
		Long: `harvest walks the parent/child relation of the HAL structure referential
from a root structure, then describes each structure found and counts its
publications.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runHarvest,
	}
)

func init() {
	rootCmd.Flags().StringVarP(&direction, "direction", "d", "desc", "traversal direction: desc or asc")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to a TOML config file")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of concurrent enrichment workers (default from config)")
	rootCmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 0, "bound on the whole harvest (default from config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func runHarvest(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	dir, err := model.ParseDirection(direction)
	if err != nil {
		return err
	}
	if output != "table" && output != "json" {
		return fmt.Errorf("unknown output format %q", output)
	}

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if workers > 0 {
		cfg.Concurrency.Enrich = workers
	}
	if timeout > 0 {
		cfg.Server.HarvestTimeout = config.Duration{Duration: timeout}
	}

	logger := cfg.Log.NewLogger(cmd.ErrOrStderr())
	ref := driver.NewHALDriver(driver.HALOptions{
		BaseURL:           cfg.Referential.BaseURL,
		Timeout:           cfg.Referential.Timeout.Duration,
		UserAgent:         cfg.Referential.UserAgent,
		ChildRows:         cfg.Referential.ChildRows,
		RequestsPerSecond: cfg.Referential.RequestsPerSecond,
		Burst:             cfg.Referential.Burst,
	})
	harvester := core.NewHarvester(ref, cfg, nil, logger)

	h, err := harvester.Harvest(cmd.Context(), args[0], dir)
	if err != nil {
		if f, ok := driver.Classify(err); ok {
			return fmt.Errorf("%w (%s error during %s of %s)", err, f.Kind, f.Operation, f.ID)
		}
		return err
	}

	if output == "json" {
		return renderJSON(cmd.OutOrStdout(), h)
	}
	return renderTable(cmd.OutOrStdout(), h)
}
