package tablestore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type storePG struct {
	pool *pgxpool.Pool
}

// NewPG creates a Store backed by the records table in PostgreSQL.
func NewPG(pool *pgxpool.Pool) Store {
	return &storePG{pool: pool}
}

const cols = `partition_key, row_key, data, created_at, updated_at`

func (s *storePG) Get(ctx context.Context, partition, row string) (*Entity, error) {
	e := &Entity{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+cols+` FROM records WHERE partition_key = $1 AND row_key = $2`,
		partition, row,
	).Scan(&e.PartitionKey, &e.RowKey, &e.Data, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *storePG) List(ctx context.Context, partition string, limit int) ([]*Entity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+cols+` FROM records WHERE partition_key = $1 ORDER BY created_at DESC LIMIT $2`,
		partition, clampLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Entity
	for rows.Next() {
		e := &Entity{}
		if err := rows.Scan(&e.PartitionKey, &e.RowKey, &e.Data, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *storePG) Create(ctx context.Context, e *Entity) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO records (partition_key, row_key, data) VALUES ($1, $2, $3)`,
		e.PartitionKey, e.RowKey, e.Data,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (s *storePG) Upsert(ctx context.Context, e *Entity) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO records (partition_key, row_key, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (partition_key, row_key)
		DO UPDATE SET data = records.data || EXCLUDED.data, updated_at = NOW()`,
		e.PartitionKey, e.RowKey, e.Data,
	)
	return err
}

func (s *storePG) Delete(ctx context.Context, partition, row string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM records WHERE partition_key = $1 AND row_key = $2`,
		partition, row,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *storePG) DeletePartition(ctx context.Context, partition string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM records WHERE partition_key = $1`,
		partition,
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
