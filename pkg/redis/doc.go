// Package redis connects to Redis with go-redis/v9.
//
// Config is read from REDIS_* environment variables. Connect retries a ping
// until the server is ready; Healthcheck wraps a ping for readiness probes.
// KeyPrefix namespaces the keys written by stores built on the client.
package redis
