package pgstore

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/trial"
)

// Migrations holds the goose migrations for this store under "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store keeps subscriptions, overrides and trial rules in Postgres.
type Store struct {
	db DB
}

var (
	_ entitlement.SubscriptionStore = (*Store)(nil)
	_ entitlement.OverrideStore     = (*Store)(nil)
	_ trial.Store                   = (*Store)(nil)
)

func New(db DB) *Store {
	if db == nil {
		panic("pgstore: DB is required")
	}
	return &Store{db: db}
}
