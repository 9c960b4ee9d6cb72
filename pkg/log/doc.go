/*
Package log provides structured logging for ToriDB using zerolog.

A single package-level Logger is configured once via Init and shared by every
component. Child loggers attach context fields without needing to thread a
logger value through call signatures:

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	log.Info("server starting")

	dbLog := log.WithDB("data")
	dbLog.Info().Msg("engine recovered from log")

	sessLog := log.WithSession(sessionID)
	sessLog.Warn().Err(err).Msg("command rejected")

JSONOutput selects JSON lines (production) vs. a ConsoleWriter (development).
Never log passwords; the executor already substitutes a bcrypt hash for
the plaintext password before ACL SETUSER reaches the command log, and the
same substitution applies to anything logged about that command.
*/
package log
