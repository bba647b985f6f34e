// Package redisstore implements entitlement.OverrideStore on Redis.
//
// The global override lives under "<prefix>override:global"; each user
// override under "<prefix>override:user:<id>", indexed by the set
// "<prefix>override:users" for listing. Writes are last-write-wins.
package redisstore
