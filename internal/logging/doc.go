// Package logging provides structured logging for procthread.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// persistent context attributes. The primitives themselves log only state
// transitions at DEBUG level; the workload harness and CLI log at INFO.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Child loggers
// created via With* methods share the underlying handler.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/var/log/procthread", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	threadLogger := logger.WithComponent("thread").WithThread(7)
//	threadLogger.Debug("trampoline started", "os_thread_id", tid)
//
// An empty directory sends output to stderr. When stderr is a terminal the
// text handler is used so interactive runs stay readable.
//
// # Rotation
//
// [NewLoggerWithRotation] writes through a [RotatingWriter]. Once a write
// would push procthread.log past MaxSizeMB the file becomes procthread.log.1,
// older backups shift up, and anything beyond MaxBackups is removed. With
// Compress set, rotated files are gzipped in the background and Close waits
// for them.
//
// # Testing
//
// Use [NopLogger] to discard output, or [NewWriterLogger] to capture JSON
// lines into a buffer.
package logging
