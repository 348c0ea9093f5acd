// Package logging builds the process logger on top of log/slog.
//
// # Usage
//
//	logger, err := logging.Install(logging.Config{
//	    Level:     "info",
//	    Format:    "json",
//	    RedactIPs: false,
//	})
//
// Install makes the logger the slog default. Components derive their own
// loggers from it:
//
//	log := slog.Default().With("component", "altdetect.storage")
//
// # Redaction
//
// Every record passes through a Redactor before it is written:
//
//   - MySQL DSN passwords: alt:secret@tcp(db:3306)/mc → alt:***@tcp(db:3306)/mc
//   - Attributes whose key contains password, secret or token → ***
//   - With RedactIPs: 192.0.2.10 → 192.*.*.*, 2001:db8::1 → 2001:*:*:*
//
// Errors logged as attributes are flattened to their redacted message.
//
// The level can be changed at runtime with SetLevel; loggers derived with
// With follow the change.
package logging
