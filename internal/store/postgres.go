package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct{ DB *sql.DB }

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{DB: db}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE TABLE IF NOT EXISTS properties (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            property_key  TEXT NOT NULL,
            address       TEXT NOT NULL,
            first_seen_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            last_seen_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
            times_seen    INT NOT NULL DEFAULT 1
        );`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_properties_property_key ON properties(property_key);`,
		`CREATE TABLE IF NOT EXISTS provider_raw_snapshots (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            provider       TEXT NOT NULL,
            endpoint       TEXT NOT NULL,
            payload        JSONB NOT NULL,
            payload_sha256 TEXT NOT NULL,
            received_at    TIMESTAMPTZ NOT NULL DEFAULT now()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_provider ON provider_raw_snapshots(provider, endpoint, received_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_sha ON provider_raw_snapshots(payload_sha256);`,
	}
	for _, q := range stmts {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// PropertyRef is one consolidated address worth indexing: the canonical key
// plus the display address as the provider sent it.
type PropertyRef struct {
	PropertyKey string
	Address     string
}

type SnapshotInput struct {
	Provider string
	Endpoint string
	Digest   string
	Payload  []byte
	Records  []PropertyRef
}

// WriteSnapshot stores the raw inbound payload for audit and bumps the
// seen-address index, all in one transaction. Transformed records are
// deliberately not persisted here.
func (s *Store) WriteSnapshot(ctx context.Context, in SnapshotInput) error {
	if s.DB == nil {
		return errors.New("nil db")
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
        INSERT INTO provider_raw_snapshots (provider, endpoint, payload, payload_sha256)
        VALUES ($1,$2,$3,$4)`,
		in.Provider, in.Endpoint, string(in.Payload), in.Digest,
	); err != nil {
		return err
	}

	for _, ref := range in.Records {
		if ref.PropertyKey == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
            INSERT INTO properties (property_key, address)
            VALUES ($1,$2)
            ON CONFLICT (property_key)
            DO UPDATE SET address=EXCLUDED.address, last_seen_at=now(), times_seen=properties.times_seen+1`,
			ref.PropertyKey, ref.Address,
		); err != nil {
			return err
		}
	}

	err = tx.Commit()
	return err
}
