// Package logger provides named loggers for the dRS packages. It is a thin
// facade over log/slog: every package requests its logger once via
// GetLogger(name) and the name shows up as a "logger" attribute on each
// record. The log level is shared process-wide and can be changed at
// runtime with SetLevel.
package logger
