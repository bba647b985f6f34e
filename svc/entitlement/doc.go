// Package entitlement composes the entitlement, trial and subscription
// packages into a service with an HTTP API.
//
// Service reads a user's subscription record, the global override and the
// user's override from the configured stores, bounds each store call with
// the configured timeout and resolves the effective grant. Store failures
// never surface as errors on the read path: the caller gets the free
// defaults with Degraded set and the failure is logged.
//
// The same Service administers overrides and trial rules. Every mutation
// requires an acting admin and is stamped with the actor and the service
// clock. Mutations that reach the store also leave an audit.Event with the
// actor, the affected record, the request ID and the client IP. Events are
// kept in memory unless WithAuditStorage supplies another audit.Storage.
//
// NewRouter exposes the service over chi:
//
//	GET    /v1/users/{userID}/entitlement
//	GET    /v1/users/{userID}/capabilities/{capability}
//	GET    /v1/trials/{code}?plan=&group=
//	POST   /v1/subscriptions/{subscriptionID}/interval
//	POST   /v1/webhooks/paddle
//	GET    /v1/admin/overrides/global          PUT, DELETE
//	GET    /v1/admin/overrides/users
//	GET    /v1/admin/overrides/users/{userID}  PUT, DELETE
//	GET    /v1/admin/trial-rules               POST
//	GET    /v1/admin/trial-rules/{ruleID}      PUT, DELETE
//	GET    /v1/admin/audit-events?actor=&action=&resource=&resource_id=&limit=&offset=
//	GET    /health/live
//	GET    /health/ready
//
// Trial lookups can be rate limited per client IP with WithTrialLimiter.
//
// Responses use the {data, meta, error} JSON envelope. Admin routes read the
// acting admin from the X-Actor-ID header; authentication is expected in
// front of the service.
package entitlement
