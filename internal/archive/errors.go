package archive

import (
	"errors"
	"fmt"
)

// ErrMissingPrecondition is the parent of the errors reported before any
// file is touched.
var ErrMissingPrecondition = errors.New("missing precondition")

var (
	ErrDirectoryNotFound     = fmt.Errorf("%w: directory not found", ErrMissingPrecondition)
	ErrExtensionNotSpecified = fmt.Errorf("%w: extension not specified", ErrMissingPrecondition)
)

// ArchiveError reports a failed archive write. Originals are never removed
// when it is returned.
type ArchiveError struct {
	Path string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("failed to create archive %s: %v", e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}
