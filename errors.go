package tosz

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ArchiveError is the error type returned by everything that reads or writes
// archive containers and the images built on them.
type ArchiveError interface {
	error
	WithMessage(message string) ArchiveError
	Wrap(err error) ArchiveError
}

type baseArchiveError string

const rootError = baseArchiveError("")

var ErrInvalidArgument = rootError.WithMessage("Invalid argument")
var ErrInvalidCompressionType = rootError.WithMessage("Unsupported compression type")
var ErrExpandedSizeTooLarge = rootError.WithMessage("Expanded size exceeds limit")
var ErrSizeMismatch = rootError.WithMessage("Declared size doesn't match data")
var ErrTruncated = rootError.WithMessage("Archive is truncated")
var ErrUndefinedCode = rootError.WithMessage("Code references an undefined table entry")
var ErrCorrupted = rootError.WithMessage("Archive data is corrupted")
var ErrShortBody = rootError.WithMessage("Image body is too small for its geometry")
var ErrIOFailed = rootError.WithMessage("Input/output error")

func (e baseArchiveError) Error() string {
	return string(e)
}

func (e baseArchiveError) WithMessage(message string) ArchiveError {
	return customArchiveError{
		message:       message,
		originalError: e,
	}
}

func (e baseArchiveError) Wrap(err error) ArchiveError {
	return customArchiveError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e, err),
	}
}

// -----------------------------------------------------------------------------

type customArchiveError struct {
	message       string
	originalError error
}

// Error implements the `error` object interface. When called, it returns a string
// describing the error.
func (e customArchiveError) Error() string {
	return e.message
}

func (e customArchiveError) WithMessage(message string) ArchiveError {
	return customArchiveError{
		message:       fmt.Sprintf("%s: %s", e.message, message),
		originalError: e,
	}
}

func (e customArchiveError) Wrap(err error) ArchiveError {
	return customArchiveError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e, err),
	}
}

func (e customArchiveError) Unwrap() error {
	return e.originalError
}
