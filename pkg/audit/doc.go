// Package audit records who changed what.
//
// A Logger builds an Event per administrative action and hands it to a
// Storage. Request-scoped values such as the request ID and the client IP
// are filled in by extractors configured once:
//
//	log := audit.NewLogger(storage,
//		audit.WithRequestIDExtractor(requestID),
//		audit.WithIPExtractor(clientIP),
//	)
//	err := log.Log(ctx, "user_override.revoke",
//		audit.WithActor(actor),
//		audit.WithResource("user_override", userID),
//	)
//
// Events outlive the records they describe: revoking an override deletes the
// override, the revoke event stays. A Reader queries them back with Criteria.
//
// MemoryStorage keeps events in process; pgstore.AuditStorage persists them
// in Postgres.
package audit
