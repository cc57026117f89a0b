// Package logging provides a simple leveled logging interface for the
// media helper.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//
// The log level is read once from the LOG_LEVEL (or DEBUG) environment
// variable and may be overridden with SetLevel. Components that want their
// name in every line use For:
//
//	log := logging.For("scanner")
//	log.Info("scan %s started", id)
package logging
