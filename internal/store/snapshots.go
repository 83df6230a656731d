package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// timestamps are stored as fixed-width UTC text so they sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Snapshot describes one stored dataset.
type Snapshot struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Rows      int       `json:"rows"`
	Reference time.Time `json:"reference_date"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveSnapshot stores every row of f. ref is the reference date the frame's
// daysfrommarch was computed against.
func (s *Store) SaveSnapshot(ctx context.Context, f *dataset.Frame, ref time.Time) (Snapshot, error) {
	if f.IsEmpty() {
		return Snapshot{}, dataset.ErrEmpty
	}
	snap := Snapshot{
		ID:        uuid.NewString(),
		Source:    f.Source(),
		Rows:      f.Len(),
		Reference: ref.UTC(),
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(
		`INSERT INTO snapshots (id, source, row_count, reference_date, created_at) VALUES (?, ?, ?, ?, ?)`),
		snap.ID, snap.Source, snap.Rows, snap.Reference.Format(timeLayout), snap.CreatedAt.Format(timeLayout))
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO snapshot_shoes (
		snapshot_id, position, shoe, sku, nickname, shoe_rank, price, release_date,
		days_from_march, designer, main_color, technology, category, product_link
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, shoe := range f.Shoes() {
		_, err := stmt.ExecContext(ctx,
			snap.ID, i, shoe.Name, shoe.SKU, shoe.Nickname,
			nullFloat(shoe.Rank), nullFloat(shoe.Price), shoe.ReleaseDate,
			shoe.DaysFromMarch, shoe.Designer, shoe.MainColor, shoe.Technology,
			shoe.Category, shoe.ProductLink,
		)
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	log.Info().Str("id", snap.ID).Int("rows", snap.Rows).Msg("Snapshot saved")
	return snap, nil
}

// Snapshots lists stored snapshots, newest first.
func (s *Store) Snapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, row_count, reference_date, created_at FROM snapshots ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Snapshot returns one snapshot's metadata.
func (s *Store) Snapshot(ctx context.Context, id string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, source, row_count, reference_date, created_at FROM snapshots WHERE id = ?`), id)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%s: %w", id, ErrNoSnapshot)
	}
	return snap, err
}

// LoadSnapshot rebuilds the frame stored under id, recomputing daysfrommarch
// against the snapshot's own reference date.
func (s *Store) LoadSnapshot(ctx context.Context, id string, opts dataset.Options) (*dataset.Frame, error) {
	snap, err := s.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT
		shoe, sku, nickname, shoe_rank, price, release_date, days_from_march,
		designer, main_color, technology, category, product_link
	FROM snapshot_shoes WHERE snapshot_id = ? ORDER BY position`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot rows: %w", err)
	}
	defer rows.Close()

	var shoes []dataset.Shoe
	for rows.Next() {
		var (
			shoe        dataset.Shoe
			rank, price sql.NullFloat64
		)
		err := rows.Scan(&shoe.Name, &shoe.SKU, &shoe.Nickname, &rank, &price,
			&shoe.ReleaseDate, &shoe.DaysFromMarch, &shoe.Designer, &shoe.MainColor,
			&shoe.Technology, &shoe.Category, &shoe.ProductLink)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		shoe.Rank, shoe.Price = floatOrNaN(rank), floatOrNaN(price)
		shoes = append(shoes, shoe)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	opts.Reference = snap.Reference
	f, err := dataset.FromShoes(shoes, opts)
	if err != nil {
		return nil, err
	}
	return f.WithSource("snapshot:" + id), nil
}

// DeleteSnapshot removes a snapshot and its rows.
func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM snapshot_shoes WHERE snapshot_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete rows: %w", err)
	}
	res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM snapshots WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNoSnapshot)
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(sc scanner) (Snapshot, error) {
	var snap Snapshot
	var ref, created string
	if err := sc.Scan(&snap.ID, &snap.Source, &snap.Rows, &ref, &created); err != nil {
		return Snapshot{}, err
	}
	var err error
	if snap.Reference, err = time.Parse(timeLayout, ref); err != nil {
		return Snapshot{}, fmt.Errorf("bad reference date %q: %w", ref, err)
	}
	if snap.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return Snapshot{}, fmt.Errorf("bad created_at %q: %w", created, err)
	}
	return snap, nil
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
