// Package logging provides structured logging for the anna CLI.
//
// This package wraps a global zap logger. Logging is silent unless a level is
// given with --log-level or the ANNA_LOG_LEVEL environment variable, so normal
// command output is never interleaved with log lines. Logs go to stderr.
//
// # Log Levels
//
//   - Debug: request/response detail, response bodies, verification attempts
//   - Info: commands sent, changes confirmed, gateways discovered
//   - Warn: failed requests and rejected commands
//   - Error: unrecoverable failures
//
// # Usage
//
//	if err := logging.Initialize(logLevel); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
//	client := anna.NewClient(cfg, anna.WithLogger(logging.GetLogger()))
//	logging.LogCommand(cfg.Host, req.String(), err)
package logging
