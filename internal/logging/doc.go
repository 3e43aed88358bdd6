// Package logging provides structured logging utilities for calmate.
//
// All components log through log/slog. This package keeps attribute names
// consistent and makes sure personal data such as attendee email addresses
// never reaches log output in clear text.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "assistant.move")
//	logger.Info("negotiation opened",
//	    logging.Session(sessionID),
//	    logging.Status(logging.StatusSuccess))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("responding to event", logging.UserHash(identity.Email))
package logging
