// Package store handles SQLite persistence of graded batches.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/calificador/internal/exam"
	"github.com/verte-zerg/calificador/internal/model"
	"github.com/verte-zerg/calificador/internal/scoring"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a requested batch does not exist.
var ErrNotFound = errors.New("batch not found")

// Store wraps SQLite access for batch data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			records_path TEXT NOT NULL,
			keys_path TEXT NOT NULL,
			duration_ns INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			batch_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			student_code TEXT NOT NULL,
			dni TEXT NOT NULL,
			variant TEXT NOT NULL,
			career_path TEXT NOT NULL,
			missing_key INTEGER NOT NULL,
			grade REAL NOT NULL,
			total_correct INTEGER NOT NULL,
			total_incorrect INTEGER NOT NULL,
			total_unanswered INTEGER NOT NULL,
			adjusted_total REAL NOT NULL,
			total_a REAL NOT NULL,
			total_b REAL NOT NULL,
			total_c REAL NOT NULL,
			PRIMARY KEY (batch_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS section_scores (
			batch_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			unanswered INTEGER NOT NULL,
			adjusted REAL NOT NULL,
			weight INTEGER NOT NULL,
			weighted_a REAL NOT NULL,
			weighted_b REAL NOT NULL,
			weighted_c REAL NOT NULL,
			PRIMARY KEY (batch_id, seq, position)
		);`,
		`CREATE TABLE IF NOT EXISTS batch_sections (
			batch_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			start_pos INTEGER NOT NULL,
			end_pos INTEGER NOT NULL,
			weight_a INTEGER NOT NULL,
			weight_b INTEGER NOT NULL,
			weight_c INTEGER NOT NULL,
			PRIMARY KEY (batch_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS batch_scales (
			batch_id TEXT NOT NULL,
			career_path TEXT NOT NULL,
			max_raw REAL NOT NULL,
			vigesimal_offset REAL NOT NULL,
			PRIMARY KEY (batch_id, career_path)
		);`,
		`CREATE TABLE IF NOT EXISTS warnings (
			batch_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			student_code TEXT NOT NULL,
			kind TEXT NOT NULL,
			message TEXT NOT NULL,
			PRIMARY KEY (batch_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_batches_created_at ON batches(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_results_path ON results(batch_id, career_path);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertBatch stores a graded batch with its exam structure, per-path
// scale, results, section rows and warnings in one transaction.
func (s *Store) InsertBatch(ctx context.Context, batch *model.Batch) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO batches (id, created_at, records_path, keys_path, duration_ns) VALUES (?, ?, ?, ?, ?)`,
		batch.ID,
		batch.CreatedAt.UTC().Format(time.RFC3339Nano),
		batch.RecordsPath,
		batch.KeysPath,
		int64(batch.Duration),
	); err != nil {
		return fmt.Errorf("insert batch %s: %w", batch.ID, err)
	}
	if err = insertLayout(ctx, tx, batch); err != nil {
		return err
	}

	resultStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (batch_id, seq, student_code, dni, variant, career_path, missing_key, grade,
			total_correct, total_incorrect, total_unanswered, adjusted_total, total_a, total_b, total_c)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(resultStmt)

	sectionStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO section_scores (batch_id, seq, position, name, correct, incorrect, unanswered, adjusted, weight,
			weighted_a, weighted_b, weighted_c)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(sectionStmt)

	for _, r := range batch.Results {
		b := r.Breakdown
		if _, err = resultStmt.ExecContext(ctx,
			batch.ID, r.Seq, r.StudentCode, r.DNI, r.Variant, string(r.Path), r.MissingKey, r.Grade,
			b.TotalCorrect, b.TotalIncorrect, b.TotalUnanswered, b.AdjustedTotal,
			b.Total(exam.PathA), b.Total(exam.PathB), b.Total(exam.PathC),
		); err != nil {
			return fmt.Errorf("insert result %s: %w", r.StudentCode, err)
		}
		for i, sec := range b.Sections {
			if _, err = sectionStmt.ExecContext(ctx,
				batch.ID, r.Seq, i, sec.Name, sec.Correct, sec.Incorrect, sec.Unanswered, sec.Adjusted, sec.Weight,
				sec.Score(exam.PathA), sec.Score(exam.PathB), sec.Score(exam.PathC),
			); err != nil {
				return fmt.Errorf("insert section %s/%s: %w", r.StudentCode, sec.Name, err)
			}
		}
	}

	if len(batch.Warnings) > 0 {
		warnStmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO warnings (batch_id, position, seq, student_code, kind, message) VALUES (?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return err
		}
		defer closeStmt(warnStmt)
		for i, w := range batch.Warnings {
			if _, err = warnStmt.ExecContext(ctx, batch.ID, i, w.Seq, w.StudentCode, string(w.Kind), w.Message); err != nil {
				return fmt.Errorf("insert warning: %w", err)
			}
		}
	}

	err = tx.Commit()
	return err
}

// ListBatches returns the most recent batches first. A non-positive limit
// returns every batch.
func (s *Store) ListBatches(ctx context.Context, limit int) ([]model.BatchSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT b.id, b.created_at, b.records_path, b.keys_path,
			(SELECT COUNT(*) FROM results r WHERE r.batch_id = b.id),
			(SELECT COUNT(*) FROM warnings w WHERE w.batch_id = b.id)
		FROM batches b
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var out []model.BatchSummary
	for rows.Next() {
		var sum model.BatchSummary
		var createdAt string
		if err := rows.Scan(&sum.ID, &createdAt, &sum.RecordsPath, &sum.KeysPath, &sum.Candidates, &sum.Warnings); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		sum.CreatedAt = parsed
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestBatch loads the most recently created batch.
func (s *Store) LatestBatch(ctx context.Context) (*model.Batch, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM batches ORDER BY created_at DESC, id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.LoadBatch(ctx, id)
}

// LoadBatch reconstructs a stored batch with the structure and scale it was
// graded with, its results, section rows and warnings.
func (s *Store) LoadBatch(ctx context.Context, id string) (*model.Batch, error) {
	batch := &model.Batch{ID: id}
	var createdAt string
	var durationNs int64
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, records_path, keys_path, duration_ns FROM batches WHERE id = ?`, id,
	).Scan(&createdAt, &batch.RecordsPath, &batch.KeysPath, &durationNs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if batch.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, err
	}
	batch.Duration = time.Duration(durationNs)

	if batch.Structure, err = s.loadStructure(ctx, id); err != nil {
		return nil, err
	}
	if batch.Scale, err = s.loadScale(ctx, id); err != nil {
		return nil, err
	}
	if batch.Results, err = s.loadResults(ctx, id); err != nil {
		return nil, err
	}
	bySeq := make(map[int]int, len(batch.Results))
	for i, r := range batch.Results {
		bySeq[r.Seq] = i
	}
	if err := s.loadSections(ctx, id, batch.Results, bySeq); err != nil {
		return nil, err
	}
	if batch.Warnings, err = s.loadWarnings(ctx, id); err != nil {
		return nil, err
	}
	for _, w := range batch.Warnings {
		if i, ok := bySeq[w.Seq]; ok {
			batch.Results[i].Warnings = append(batch.Results[i].Warnings, w)
		}
	}
	return batch, nil
}

func insertLayout(ctx context.Context, tx *sql.Tx, batch *model.Batch) error {
	for i, sec := range batch.Structure.Sections {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO batch_sections (batch_id, position, name, start_pos, end_pos, weight_a, weight_b, weight_c)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			batch.ID, i, sec.Name, sec.Start, sec.End,
			sec.Weight(exam.PathA), sec.Weight(exam.PathB), sec.Weight(exam.PathC),
		); err != nil {
			return fmt.Errorf("insert section layout %s: %w", sec.Name, err)
		}
	}
	for path, v := range batch.Scale {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO batch_scales (batch_id, career_path, max_raw, vigesimal_offset) VALUES (?, ?, ?, ?)`,
			batch.ID, string(path), v.MaxRaw, v.Offset,
		); err != nil {
			return fmt.Errorf("insert scale %s: %w", path, err)
		}
	}
	return nil
}

func (s *Store) loadStructure(ctx context.Context, id string) (exam.Structure, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, start_pos, end_pos, weight_a, weight_b, weight_c
		FROM batch_sections WHERE batch_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return exam.Structure{}, err
	}
	defer closeRows(rows)

	var structure exam.Structure
	for rows.Next() {
		var sec exam.Section
		var wa, wb, wc int
		if err := rows.Scan(&sec.Name, &sec.Start, &sec.End, &wa, &wb, &wc); err != nil {
			return exam.Structure{}, err
		}
		sec.Weights = map[exam.CareerPath]int{exam.PathA: wa, exam.PathB: wb, exam.PathC: wc}
		structure.Sections = append(structure.Sections, sec)
	}
	return structure, rows.Err()
}

func (s *Store) loadScale(ctx context.Context, id string) (scoring.Scale, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT career_path, max_raw, vigesimal_offset FROM batch_scales WHERE batch_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	scale := scoring.Scale{}
	for rows.Next() {
		var path string
		var v scoring.Vigesimal
		if err := rows.Scan(&path, &v.MaxRaw, &v.Offset); err != nil {
			return nil, err
		}
		scale[exam.CareerPath(path)] = v
	}
	return scale, rows.Err()
}

func (s *Store) loadResults(ctx context.Context, id string) ([]model.CandidateResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT seq, student_code, dni, variant, career_path, missing_key, grade,
			total_correct, total_incorrect, total_unanswered, adjusted_total, total_a, total_b, total_c
		FROM results WHERE batch_id = ? ORDER BY seq ASC`, id)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var out []model.CandidateResult
	for rows.Next() {
		var r model.CandidateResult
		var path string
		var totalA, totalB, totalC float64
		if err := rows.Scan(&r.Seq, &r.StudentCode, &r.DNI, &r.Variant, &path, &r.MissingKey, &r.Grade,
			&r.Breakdown.TotalCorrect, &r.Breakdown.TotalIncorrect, &r.Breakdown.TotalUnanswered, &r.Breakdown.AdjustedTotal,
			&totalA, &totalB, &totalC); err != nil {
			return nil, err
		}
		r.Path = exam.CareerPath(path)
		r.Breakdown.Path = r.Path
		r.Breakdown.Totals = pathValues(totalA, totalB, totalC)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) loadSections(ctx context.Context, id string, results []model.CandidateResult, bySeq map[int]int) error {
	rows, err := s.db.QueryContext(ctx, `SELECT seq, name, correct, incorrect, unanswered, adjusted, weight,
			weighted_a, weighted_b, weighted_c
		FROM section_scores WHERE batch_id = ? ORDER BY seq ASC, position ASC`, id)
	if err != nil {
		return err
	}
	defer closeRows(rows)

	for rows.Next() {
		var seq int
		var sec scoring.SectionScore
		var wa, wb, wc float64
		if err := rows.Scan(&seq, &sec.Name, &sec.Correct, &sec.Incorrect, &sec.Unanswered, &sec.Adjusted, &sec.Weight,
			&wa, &wb, &wc); err != nil {
			return err
		}
		sec.Weighted = pathValues(wa, wb, wc)
		i, ok := bySeq[seq]
		if !ok {
			continue
		}
		results[i].Breakdown.Sections = append(results[i].Breakdown.Sections, sec)
	}
	return rows.Err()
}

func (s *Store) loadWarnings(ctx context.Context, id string) ([]model.Warning, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, student_code, kind, message FROM warnings WHERE batch_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var out []model.Warning
	for rows.Next() {
		var w model.Warning
		var kind string
		if err := rows.Scan(&w.Seq, &w.StudentCode, &kind, &w.Message); err != nil {
			return nil, err
		}
		w.Kind = model.WarningKind(kind)
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func pathValues(a, b, c float64) map[exam.CareerPath]float64 {
	return map[exam.CareerPath]float64{exam.PathA: a, exam.PathB: b, exam.PathC: c}
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}

func closeStmt(stmt *sql.Stmt) {
	if cerr := stmt.Close(); cerr != nil {
		// Best-effort statement close.
		_ = cerr
	}
}
