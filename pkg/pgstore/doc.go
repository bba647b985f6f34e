// Package pgstore persists subscription records, overrides and trial rules in
// PostgreSQL through pgx.
//
// Store implements entitlement.SubscriptionStore, entitlement.OverrideStore
// and trial.Store over a *pgxpool.Pool. The schema ships as goose migrations
// in Migrations:
//
//	pool, _ := pg.Connect(ctx, cfg)
//	_ = pg.Migrate(ctx, pool, cfg, pgstore.Migrations, "migrations", log)
//	store := pgstore.New(pool)
//
// Capability overrides are stored as a JSONB object holding only the set
// tri-states. Expired user overrides are returned as stored.
//
// AuditStorage implements audit.Storage on the audit_events table.
package pgstore
