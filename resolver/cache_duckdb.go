// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eventloc/locator/spatial"
)

// DuckDBStore persists resolved locations in a DuckDB table so the cache
// survives restarts of a single node.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore creates a store over db. Call CreateSchema before use.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// DB returns the underlying database connection.
func (s *DuckDBStore) DB() *sql.DB {
	return s.db
}

// CreateSchema creates the resolved_locations table.
func (s *DuckDBStore) CreateSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS resolved_locations (
			fingerprint VARCHAR PRIMARY KEY,
			address VARCHAR NOT NULL,
			lon DOUBLE NOT NULL,
			lat DOUBLE NOT NULL,
			confidence DOUBLE NOT NULL,
			timezone VARCHAR NOT NULL,
			location_notes VARCHAR NOT NULL,
			tier VARCHAR NOT NULL,
			h3_cell VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating resolved_locations: %w", err)
	}

	return nil
}

// Get implements Store.
func (s *DuckDBStore) Get(ctx context.Context, key string) (*ResolvedLocation, bool, error) {
	var (
		loc      ResolvedLocation
		lon, lat float64
		tier     string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT address, lon, lat, confidence, timezone, location_notes, tier, h3_cell, created_at
		FROM resolved_locations
		WHERE fingerprint = ?
	`, key).Scan(
		&loc.Address,
		&lon,
		&lat,
		&loc.Confidence,
		&loc.Timezone,
		&loc.LocationNotes,
		&tier,
		&loc.H3Cell,
		&loc.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}

	loc.Coordinates = spatial.NewCoordinates(lon, lat)
	loc.Tier = Tier(tier)
	loc.CreatedAt = loc.CreatedAt.UTC()

	return &loc, true, nil
}

// Set implements Store.
func (s *DuckDBStore) Set(ctx context.Context, key string, loc *ResolvedLocation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO resolved_locations (
			fingerprint,
			address,
			lon,
			lat,
			confidence,
			timezone,
			location_notes,
			tier,
			h3_cell,
			created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		key,
		loc.Address,
		loc.Coordinates.Lon(),
		loc.Coordinates.Lat(),
		loc.Confidence,
		loc.Timezone,
		loc.LocationNotes,
		string(loc.Tier),
		loc.H3Cell,
		loc.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}

	return nil
}

// Purge implements Store.
func (s *DuckDBStore) Purge(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM resolved_locations WHERE created_at < ?`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("purging resolved_locations: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged rows: %w", err)
	}

	return int(n), nil
}

// Len implements Store.
func (s *DuckDBStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resolved_locations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting resolved_locations: %w", err)
	}

	return n, nil
}
