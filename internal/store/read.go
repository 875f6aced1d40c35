package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/flowgen/internal/ir"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ReadBundle returns the bundle with the given content hash.
func (s *Store) ReadBundle(ctx context.Context, id string) (*ir.ArtifactBundle, error) {
	b := &ir.ArtifactBundle{}
	var version string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, page_name, test_name, locators_file, page_file, test_file,
		       locators_module, page_module, test_module, generator_version
		FROM bundles
		WHERE id = ?
	`, id).Scan(
		&b.ID,
		&b.PageName,
		&b.TestName,
		&b.LocatorsFile,
		&b.PageFile,
		&b.TestFile,
		&b.LocatorsModule,
		&b.PageObjectModule,
		&b.TestSpecModule,
		&version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read bundle %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read bundle %s: %w", id, err)
	}
	return b, nil
}

// ListGenerations returns the generation history of a test, oldest first.
// Results are ordered deterministically: ORDER BY seq ASC.
//
// Returns an empty slice (not nil) if the test was never generated.
func (s *Store) ListGenerations(ctx context.Context, testName string) ([]Generation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, run_id, bundle_id, test_case_id, test_name, flow_hash, created_at
		FROM generations
		WHERE test_name = ?
		ORDER BY seq ASC
	`, testName)
	if err != nil {
		return nil, fmt.Errorf("query generations: %w", err)
	}
	defer rows.Close()

	gens := []Generation{}
	for rows.Next() {
		var g Generation
		var created string
		if err := rows.Scan(&g.Seq, &g.RunID, &g.BundleID, &g.TestCaseID, &g.TestName, &g.FlowHash, &created); err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		if g.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at of run %s: %w", g.RunID, err)
		}
		gens = append(gens, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generations: %w", err)
	}
	return gens, nil
}

// LatestGeneration returns the most recent generation of a test.
func (s *Store) LatestGeneration(ctx context.Context, testName string) (Generation, error) {
	gens, err := s.ListGenerations(ctx, testName)
	if err != nil {
		return Generation{}, err
	}
	if len(gens) == 0 {
		return Generation{}, fmt.Errorf("latest generation of %s: %w", testName, ErrNotFound)
	}
	return gens[len(gens)-1], nil
}
