// Package postgres keeps wave summaries in a PostgreSQL table so waves from
// many output files can be queried together.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/schwartzgroup/daymet-aggregation/internal/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS extreme_temperature_waves (
	dataset     TEXT        NOT NULL,
	wave_id     INTEGER     NOT NULL,
	run_id      TEXT        NOT NULL,
	location    TEXT        NOT NULL,
	extreme     TEXT        NOT NULL CHECK (extreme IN ('cold', 'hot')),
	start_date  DATE        NOT NULL,
	end_date    DATE        NOT NULL,
	length      INTEGER     NOT NULL CHECK (length > 0),
	detected_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (dataset, wave_id)
);
CREATE INDEX IF NOT EXISTS extreme_temperature_waves_location_idx
	ON extreme_temperature_waves (location, extreme, start_date)`

const upsertWave = `INSERT INTO extreme_temperature_waves (
	dataset, wave_id, run_id, location, extreme, start_date, end_date, length, detected_at
)
 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
 ON CONFLICT (dataset, wave_id) DO UPDATE SET
   run_id = $3, location = $4, extreme = $5, start_date = $6, end_date = $7,
   length = $8, detected_at = $9`

// Store writes wave summaries. It implements pipeline.WaveLoader.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to dsn and verifies the connection.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Name() string { return "postgres" }

// EnsureSchema creates the waves table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// LoadWaves upserts the summaries keyed by (dataset, wave_id), so
// regenerating an output replaces its earlier waves.
func (s *Store) LoadWaves(ctx context.Context, waves []domain.WaveSummary) error {
	if len(waves) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, w := range waves {
		batch.Queue(upsertWave, waveArgs(w)...)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for _, w := range waves {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert wave %s/%d: %w", w.Dataset, w.WaveID, err)
		}
	}
	return nil
}

// CountWaves returns the number of stored waves of one kind for a dataset.
func (s *Store) CountWaves(ctx context.Context, dataset string, label domain.Label) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM extreme_temperature_waves WHERE dataset = $1 AND extreme = $2`,
		dataset, string(label),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count waves: %w", err)
	}
	return n, nil
}

// waveArgs orders a summary's fields as the upsert parameters.
func waveArgs(w domain.WaveSummary) []any {
	return []any{
		w.Dataset,
		w.WaveID,
		w.RunID,
		w.Location,
		string(w.Label),
		w.Start,
		w.End,
		w.Length,
		w.DetectedAt.UTC().Truncate(time.Microsecond),
	}
}
