// Package logger provides structured logging for the application.
//
// It builds JSON slog loggers at a configured level and carries request- or
// run-scoped loggers through context.Context.
package logger
