// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder,
//   - a rotating file sink for runs where the dashboard owns the terminal,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and leveled helpers (Infof, ErrorKV, etc.).
//
// Every goroutine of a watch run receives a context and extracts the logger
// from it, so log lines carry the task name that produced them.
package logger
