// Package mongo connects to MongoDB with the official v2 driver.
//
// Config is read from MONGODB_* environment variables. New retries until the
// deployment answers a ping; NewWithDatabase also selects MONGODB_DATABASE.
// Healthcheck wraps a ping for readiness probes.
package mongo
