//-------------------------------------------------------------------------
//
// unidwh: University Data Warehouse Generator
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/campusmetrics/unidwh/internal/logging"
	"github.com/campusmetrics/unidwh/pkg/version"
)

const metadataTable = "dwh_metadata"

// createMetadataTableSQL creates the metadata table if it doesn't exist.
const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS dwh_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

// SaveBuildMetadata records warehouse build metadata after a successful
// ETL run. The report and export commands use it to refuse running against
// a database that was never built.
func SaveBuildMetadata(ctx context.Context, db DB, inputDir string) error {
	_, err := db.Exec(ctx, createMetadataTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	metadata := map[string]string{
		"version":   version.Short(),
		"built_at":  time.Now().UTC().Format(time.RFC3339),
		"input_dir": inputDir,
	}

	for key, value := range metadata {
		_, err := db.Exec(ctx, `
            INSERT INTO dwh_metadata (key, value) VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
        `, key, value)
		if err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	logging.Debug().
		Str("input_dir", inputDir).
		Msg("Saved build metadata")

	return nil
}

// GetMetadataValue retrieves a single metadata value by key.
func GetMetadataValue(ctx context.Context, db DB, key string) (string, error) {
	var value string
	err := db.QueryRow(ctx, `
        SELECT value FROM dwh_metadata WHERE key = $1
    `, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// GetAllMetadata retrieves all metadata as a map.
func GetAllMetadata(ctx context.Context, db DB) (map[string]string, error) {
	rows, err := db.Query(ctx, `SELECT key, value FROM dwh_metadata`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}

	return metadata, rows.Err()
}

// DropMetadata drops the metadata table.
func DropMetadata(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", metadataTable))
	return err
}

// RequireBuilt returns an error unless the warehouse carries build metadata.
func RequireBuilt(ctx context.Context, db DB) error {
	if _, err := GetMetadataValue(ctx, db, "built_at"); err != nil {
		return fmt.Errorf("warehouse has not been built; run 'unidwh etl' first")
	}
	return nil
}
