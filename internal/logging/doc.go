// Package logging provides slog-based structured logging with a compact
// console handler for interactive terminals and JSON output elsewhere.
//
// Components obtain scoped loggers via NewComponentLogger; workflow code
// threads item/workflow annotations through context and rehydrates them
// with WithContext before logging.
package logging
