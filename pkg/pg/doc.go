// Package pg manages the Postgres pool behind webhook delivery and inbox
// storage.
//
// Connect retries pool creation with a growing backoff and verifies each
// candidate with a ping. Migrate applies goose SQL migrations through the
// same pool. The Is*Error helpers classify pgx errors so storage layers can
// map them onto domain sentinels without importing pgconn themselves.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//	    return err
//	}
//
//	store, err := webhook.NewPostgresStorage(pool)
package pg
