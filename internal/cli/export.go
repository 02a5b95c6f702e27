package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/spf13/cobra"

	"github.com/campusmetrics/unidwh/internal/db"
	"github.com/campusmetrics/unidwh/internal/logging"
	"github.com/campusmetrics/unidwh/internal/warehouse"
)

var (
	exportOutputDir string
	exportTables    []string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export warehouse tables to CSV files",
	Long: `Export warehouse tables to CSV files, one file per table, named after
the table. By default every dimension and fact table is exported.

Example:
  unidwh export --tables fact_finance,dim_student --output-dir ./out`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOutputDir, "output-dir", ".",
		"directory for exported CSV files")
	exportCmd.Flags().StringSliceVar(&exportTables, "tables", nil,
		"tables to export (default: all warehouse tables)")
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	tables := exportTables
	if len(tables) == 0 {
		tables = warehouse.AllTables
	}
	for _, table := range tables {
		if !warehouse.IsWarehouseTable(table) {
			return fmt.Errorf("unknown table %q; valid tables: %s",
				table, strings.Join(warehouse.AllTables, ", "))
		}
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := db.RequireBuilt(ctx, pool); err != nil {
		return err
	}

	if err := os.MkdirAll(exportOutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, table := range tables {
		rows, err := exportTable(ctx, pool, table, exportOutputDir)
		if err != nil {
			return fmt.Errorf("failed to export %s: %w", table, err)
		}
		logging.Info().
			Str("table", table).
			Int("rows", rows).
			Msg("Exported table")
	}

	return nil
}

func exportTable(ctx context.Context, conn db.DB, table, dir string) (int, error) {
	// Table names are validated against the warehouse table list before
	// this point.
	rows, err := conn.Query(ctx, "SELECT * FROM "+table)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	f, err := os.Create(filepath.Join(dir, table+".csv"))
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := make([]string, 0, len(rows.FieldDescriptions()))
	for _, fd := range rows.FieldDescriptions() {
		header = append(header, fd.Name)
	}
	if err := w.Write(header); err != nil {
		return 0, err
	}

	count := 0
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return count, err
		}
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = formatValue(v)
		}
		if err := w.Write(record); err != nil {
			return count, err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, err
	}

	w.Flush()
	return count, w.Error()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case pgtype.Numeric:
		// NUMERIC columns come back as pgtype.Numeric from Values().
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return ""
		}
		return strconv.FormatFloat(f.Float64, 'f', -1, 64)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
