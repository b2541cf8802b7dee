// Package errors provides classified error primitives used across mdlinkcheck.
//
// Every failure that crosses a package boundary is a ClassifiedError carrying a category
// (usage, config, walk, read, parse, ...), a severity and structured context. Only usage
// and config errors are fatal; per-file failures are isolated by the scanner.
//
// Example usage:
//
//	err := errors.ReadError("failed to read document").
//		WithCause(readErr).
//		WithContext("file", path).
//		Build()
package errors
