// Package tablestore provides a partition/row-key table abstraction over a
// single PostgreSQL table. Entities are grouped by partition key and unique by
// row key within a partition; payloads are schemaless JSON documents.
package tablestore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no entity exists for the given keys.
	ErrNotFound = errors.New("tablestore: entity not found")
	// ErrDuplicate is returned by Create when the key pair already exists.
	ErrDuplicate = errors.New("tablestore: entity already exists")
)

// Entity is a single row: composite identity plus a JSON document.
type Entity struct {
	PartitionKey string          `json:"partition_key"`
	RowKey       string          `json:"row_key"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Decode unmarshals the entity payload into v.
func (e *Entity) Decode(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Store is the key-value table contract the domain repositories build on.
type Store interface {
	// Get returns the entity at (partition, row) or ErrNotFound.
	Get(ctx context.Context, partition, row string) (*Entity, error)
	// List returns up to limit entities of a partition, most recently
	// created first.
	List(ctx context.Context, partition string, limit int) ([]*Entity, error)
	// Create inserts the entity, failing with ErrDuplicate if the key pair
	// already exists.
	Create(ctx context.Context, e *Entity) error
	// Upsert inserts or merges the entity. Merge semantics: top-level JSON
	// fields of the new payload overwrite existing ones, fields absent from
	// the new payload are kept. Never fails on existence.
	Upsert(ctx context.Context, e *Entity) error
	// Delete removes the entity at (partition, row); ErrNotFound if absent.
	Delete(ctx context.Context, partition, row string) error
	// DeletePartition removes every entity in a partition and returns the
	// number of rows removed.
	DeletePartition(ctx context.Context, partition string) (int, error)
}

// MaxListLimit bounds List results regardless of the caller's limit.
const MaxListLimit = 100

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// Marshal encodes v into an entity payload.
func Marshal(partition, row string, v interface{}) (*Entity, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Entity{PartitionKey: partition, RowKey: row, Data: data}, nil
}
