package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/flowgen/internal/ir"
)

// Generation is one recorded generation run.
type Generation struct {
	Seq        int64     `json:"seq"`
	RunID      string    `json:"run_id"`
	BundleID   string    `json:"bundle_id"`
	TestCaseID string    `json:"test_case_id"`
	TestName   string    `json:"test_name"`
	FlowHash   string    `json:"flow_hash"`
	CreatedAt  time.Time `json:"created_at"`
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WriteBundle inserts a bundle into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - a bundle with the same
// content hash is stored once.
func (s *Store) WriteBundle(ctx context.Context, b *ir.ArtifactBundle) error {
	if err := writeBundle(ctx, s.db, b); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	return nil
}

func writeBundle(ctx context.Context, db execer, b *ir.ArtifactBundle) error {
	if b.ID == "" {
		return fmt.Errorf("bundle %s/%s has no id", b.PageName, b.TestName)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO bundles
		(id, page_name, test_name, locators_file, page_file, test_file,
		 locators_module, page_module, test_module, generator_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		b.ID,
		b.PageName,
		b.TestName,
		b.LocatorsFile,
		b.PageFile,
		b.TestFile,
		b.LocatorsModule,
		b.PageObjectModule,
		b.TestSpecModule,
		ir.GeneratorVersion,
	)
	return err
}

// RecordGeneration stores b (if new) and appends a generation record for it,
// in one transaction. Seq is assigned by the store and returned in the
// result.
//
// Note: RunID must be unique; recording the same run twice is an error.
func (s *Store) RecordGeneration(ctx context.Context, g Generation, b *ir.ArtifactBundle) (Generation, error) {
	if g.BundleID == "" {
		g.BundleID = b.ID
	}
	if g.BundleID != b.ID {
		return Generation{}, fmt.Errorf("record generation: bundle id %s does not match bundle %s", g.BundleID, b.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Generation{}, fmt.Errorf("record generation: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := writeBundle(ctx, tx, b); err != nil {
		return Generation{}, fmt.Errorf("record generation: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO generations
		(run_id, bundle_id, test_case_id, test_name, flow_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		g.RunID,
		g.BundleID,
		g.TestCaseID,
		g.TestName,
		g.FlowHash,
		g.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return Generation{}, fmt.Errorf("record generation: %w", err)
	}
	if g.Seq, err = result.LastInsertId(); err != nil {
		return Generation{}, fmt.Errorf("record generation: get seq: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Generation{}, fmt.Errorf("record generation: commit: %w", err)
	}
	return g, nil
}

// Recorder stamps and stores generation runs.
type Recorder struct {
	Store *Store
	IDs   RunIDGenerator // nil: UUIDv7Generator
	Clock Clock          // nil: SystemClock
}

// Record stores b as the output of one run over flow.
func (r *Recorder) Record(ctx context.Context, flow ir.Flow, b *ir.ArtifactBundle) (Generation, error) {
	hash, err := ir.FlowHash(flow.Steps)
	if err != nil {
		return Generation{}, err
	}

	ids := r.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	clock := r.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	testCaseID := flow.TestCaseID
	if testCaseID == "" {
		testCaseID = b.TestName
	}
	return r.Store.RecordGeneration(ctx, Generation{
		RunID:      ids.Generate(),
		BundleID:   b.ID,
		TestCaseID: testCaseID,
		TestName:   b.TestName,
		FlowHash:   hash,
		CreatedAt:  clock.Now(),
	}, b)
}
