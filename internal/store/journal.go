package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/replacer/internal/ir"
)

// WritePass appends a pass and its edits in one transaction.
// Re-writing a pass ID that already exists is a no-op.
func (s *Store) WritePass(ctx context.Context, pass ir.Pass) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write pass: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO passes (id, document, seq, rules, digest, engine_version, journal_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, pass.ID, pass.Document, pass.Seq, pass.Rules, pass.Digest, ir.EngineVersion, ir.JournalVersion)
	if err != nil {
		return fmt.Errorf("write pass %s: %w", pass.ID, err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write pass %s: %w", pass.ID, err)
	}

	if inserted > 0 {
		for i, e := range pass.Edits {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO edits (pass_id, idx, rule, char_offset, inserted, erased_len)
				VALUES (?, ?, ?, ?, ?, ?)
			`, pass.ID, i, e.Rule, e.Offset, e.Inserted, e.ErasedLen)
			if err != nil {
				return fmt.Errorf("write pass %s: edit %d: %w", pass.ID, i, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("write pass %s: commit: %w", pass.ID, err)
	}
	return nil
}

// ReadPasses returns passes in seq order with their edits. An empty
// document reads every document. Returns an empty slice, not nil, when
// nothing matches.
func (s *Store) ReadPasses(ctx context.Context, document string) ([]ir.Pass, error) {
	query := `
		SELECT id, document, seq, rules, digest
		FROM passes
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`
	args := []any{}
	if document != "" {
		query = `
		SELECT id, document, seq, rules, digest
		FROM passes
		WHERE document = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`
		args = append(args, document)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}
	defer rows.Close()

	passes := []ir.Pass{}
	for rows.Next() {
		var p ir.Pass
		if err := rows.Scan(&p.ID, &p.Document, &p.Seq, &p.Rules, &p.Digest); err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passes: %w", err)
	}
	rows.Close()

	for i := range passes {
		edits, err := s.readEdits(ctx, passes[i].ID)
		if err != nil {
			return nil, err
		}
		passes[i].Edits = edits
	}
	return passes, nil
}

// ReadPass returns one pass by ID, or sql.ErrNoRows wrapped.
func (s *Store) ReadPass(ctx context.Context, id string) (ir.Pass, error) {
	var p ir.Pass
	err := s.db.QueryRowContext(ctx, `
		SELECT id, document, seq, rules, digest
		FROM passes
		WHERE id = ?
	`, id).Scan(&p.ID, &p.Document, &p.Seq, &p.Rules, &p.Digest)
	if err != nil {
		return ir.Pass{}, fmt.Errorf("read pass %s: %w", id, err)
	}

	p.Edits, err = s.readEdits(ctx, id)
	if err != nil {
		return ir.Pass{}, err
	}
	return p, nil
}

func (s *Store) readEdits(ctx context.Context, passID string) ([]ir.Edit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule, char_offset, inserted, erased_len
		FROM edits
		WHERE pass_id = ?
		ORDER BY idx ASC
	`, passID)
	if err != nil {
		return nil, fmt.Errorf("query edits for %s: %w", passID, err)
	}
	defer rows.Close()

	edits := []ir.Edit{}
	for rows.Next() {
		var e ir.Edit
		if err := rows.Scan(&e.Rule, &e.Offset, &e.Inserted, &e.ErasedLen); err != nil {
			return nil, fmt.Errorf("scan edit: %w", err)
		}
		edits = append(edits, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edits: %w", err)
	}
	return edits, nil
}

// LastSeq returns the highest recorded seq, or 0 for an empty journal.
// Feed it to engine.NewClockAt to continue the sequence.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM passes`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}
