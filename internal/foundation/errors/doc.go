// Package errors provides foundational, type-safe error primitives used across bookbuilder.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, filesystem, tool, git, publish, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - RetryStrategy: Advisory retry behavior for callers of the CLI
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLIErrorAdapter: exit code mapping and user-facing formatting
//
// Example usage:
//
//	err := errors.FileSystemError("read chapter failed").
//		WithCause(readErr).
//		WithContext("path", chapterPath).
//		Build()
package errors
