package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/campusmetrics/unidwh/internal/db"
	"github.com/campusmetrics/unidwh/internal/logging"
	"github.com/campusmetrics/unidwh/internal/warehouse"
)

var (
	etlInputDir        string
	etlAcademicSamples int
	etlFinanceRecords  int
	etlSeed            uint64
)

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Run the full ETL pipeline and rebuild the warehouse",
	Long: `Run the full ETL pipeline: read the dimension CSV files, clean and
repair them, drop and recreate the star schema, load the dimensions in
dependency order, and synthesize fact records.

The rebuild is destructive. Every warehouse table is dropped and
recreated on each run.

Example:
  unidwh etl --input-dir ./data --connection "postgres://..."`,
	RunE: runETL,
}

func init() {
	etlCmd.Flags().StringVar(&etlInputDir, "input-dir", "",
		"directory containing the dimension CSV files (default: current directory)")
	etlCmd.Flags().IntVar(&etlAcademicSamples, "academic-samples", 0,
		"student samples for academic facts (default: 5000)")
	etlCmd.Flags().IntVar(&etlFinanceRecords, "finance-records", 0,
		"number of finance fact records (default: 2000)")
	etlCmd.Flags().Uint64Var(&etlSeed, "seed", 0,
		"random seed for reproducible repairs and facts")
}

func runETL(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if etlInputDir != "" {
		cfg.ETL.InputDir = etlInputDir
	}
	if etlAcademicSamples > 0 {
		cfg.ETL.AcademicSamples = etlAcademicSamples
	}
	if etlFinanceRecords > 0 {
		cfg.ETL.FinanceRecords = etlFinanceRecords
	}
	if etlSeed != 0 {
		cfg.ETL.Seed = etlSeed
	}

	if err := cfg.ValidateETL(); err != nil {
		return err
	}

	logging.Info().
		Str("input_dir", cfg.ETL.InputDir).
		Msg("Starting ETL pipeline")

	raw, err := warehouse.ReadDimensions(cfg.ETL.InputDir)
	if err != nil {
		return fmt.Errorf("failed to read dimension files: %w", err)
	}

	faker := newFaker(cfg.ETL.Seed)
	repair := warehouse.NewRandomRepair(faker)
	dims := warehouse.NewTransformer(repair, time.Now()).Transform(raw)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := warehouse.RebuildSchema(ctx, pool); err != nil {
		return fmt.Errorf("failed to rebuild schema: %w", err)
	}

	if err := warehouse.NewLoader(pool, repair).Load(ctx, dims); err != nil {
		return fmt.Errorf("failed to load dimensions: %w", err)
	}

	syn := warehouse.NewSynthesizer(pool, faker, warehouse.SynthesisConfig{
		AcademicSamples: cfg.ETL.AcademicSamples,
		FinanceRecords:  cfg.ETL.FinanceRecords,
	})
	if err := syn.Run(ctx); err != nil {
		return fmt.Errorf("failed to synthesize facts: %w", err)
	}

	if err := db.SaveBuildMetadata(ctx, pool, cfg.ETL.InputDir); err != nil {
		return fmt.Errorf("failed to save build metadata: %w", err)
	}

	logging.Info().Msg("ETL pipeline complete")
	return nil
}
