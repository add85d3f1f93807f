// Package errors defines error types for command execution.
//
// This package provides structured error types for the different failure
// scenarios when spawning, streaming, and supervising child processes. All
// error types support error unwrapping and can be checked using errors.Is,
// errors.As, and errors.AsType.
package errors
