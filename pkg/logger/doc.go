// Package logger builds *slog.Logger values with a shared set of options and
// attribute helpers.
//
// New returns a JSON or text logger wrapped by NewContextHandler, which runs
// registered ContextExtractor callbacks on every record so request-scoped
// values such as the request ID end up in each log line:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.AppEnv, cfg.AppName),
//		logger.WithContextExtractors(requestIDExtractor),
//	)
//	log.WarnContext(ctx, "override store unavailable",
//		logger.UserID(userID),
//		logger.Error(err),
//	)
//
// Attribute helpers return an empty slog.Attr for empty values, which slog
// omits, so callers do not need nil or empty checks.
package logger
