// Package pg bootstraps PostgreSQL access with pgx/v5.
//
// Connect builds a *pgxpool.Pool from Config (PG_* environment variables) and
// retries until the database answers a ping. Migrate runs goose migrations on
// the same pool, either from an embedded fs.FS shipped with a store package or
// from PG_MIGRATIONS_PATH on disk. Healthcheck returns a probe suitable for
// readiness endpoints.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, pgstore.Migrations, "migrations", log); err != nil {
//		return err
//	}
//
// IsNotFoundError and IsConstraintError classify driver errors without
// leaking pgx types to callers.
package pg
