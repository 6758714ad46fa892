// Package errkind defines the error categories used across mapscan.
//
// Per-block decode failures are represented by SerializationError and are
// recoverable: the offending block is skipped and the worker continues.
// Every other kind is fatal to the process.
package errkind

import "fmt"

// SerializationError reports a malformed input block. It carries enough
// context (buffer size, cursor offset, remaining bytes, a label identifying
// the field being read, and an optional message) for investigating bad
// captures after the fact.
type SerializationError struct {
	BufferSize int
	Offset     int
	Remaining  int
	Label      string
	Message    string
}

func (e *SerializationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("serialization error at %s (offset=%d, remaining=%d, size=%d): %s",
			e.Label, e.Offset, e.Remaining, e.BufferSize, e.Message)
	}
	return fmt.Sprintf("serialization error at %s (offset=%d, remaining=%d, size=%d)",
		e.Label, e.Offset, e.Remaining, e.BufferSize)
}

// NewSerializationError builds a SerializationError with a formatted message.
func NewSerializationError(bufferSize, offset, remaining int, label, format string, args ...any) *SerializationError {
	return &SerializationError{
		BufferSize: bufferSize,
		Offset:     offset,
		Remaining:  remaining,
		Label:      label,
		Message:    fmt.Sprintf(format, args...),
	}
}

// StorageError reports a source- or sink-store I/O failure. Fatal.
type StorageError struct {
	Op      string
	Message string
	Cause   error
}

func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("storage error during %s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("storage error during %s: %s", e.Op, e.Message)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// NewStorageError wraps cause with an operation label.
func NewStorageError(op, message string, cause error) *StorageError {
	return &StorageError{Op: op, Message: message, Cause: cause}
}

// SchemaError reports a failure creating or verifying the analytic schema. Fatal.
type SchemaError struct {
	Message string
	Cause   error
}

func (e *SchemaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("schema error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("schema error: %s", e.Message)
}

func (e *SchemaError) Unwrap() error { return e.Cause }

// NewSchemaError wraps cause with a message.
func NewSchemaError(message string, cause error) *SchemaError {
	return &SchemaError{Message: message, Cause: cause}
}

// ConfigError reports an invalid CLI invocation or pattern file. Fatal,
// raised before any worker thread starts.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("config error: %s", e.Message) }

// NewConfigError builds a ConfigError with a formatted message.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// UnimplementedError reports an invoked feature stub. Fatal if invoked.
type UnimplementedError struct {
	Feature string
}

func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("unimplemented: %s", e.Feature)
}

// NewUnimplementedError builds an UnimplementedError for the named feature.
func NewUnimplementedError(feature string) *UnimplementedError {
	return &UnimplementedError{Feature: feature}
}
