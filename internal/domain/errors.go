package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors
var (
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrPreferenceNotFound    = errors.New("preference not found")
	ErrImportJobNotFound     = errors.New("import job not found")
	ErrRowNotFound           = errors.New("preview row not found")
	ErrStatementNotArchived  = errors.New("no archived statement for this import")
	ErrCategoryAlreadyExists = errors.New("category already exists")
	ErrNameRequired          = errors.New("name is required")
	ErrNameTooLong           = errors.New("name exceeds maximum length")
	ErrInvalidRule           = errors.New("invalid rule")
	ErrInvalidGoal           = errors.New("investment goal must be between 0 and 100")
	ErrEmptyImport           = errors.New("import contains no usable rows")
	ErrJobNotReviewable      = errors.New("import job is not awaiting review")
	ErrJobNotCancellable     = errors.New("import job can no longer be cancelled")
	ErrMissingColumns        = errors.New("required columns not found in header")
)

// Validation constants
const (
	MaxCategoryNameLength = 100
	MaxPatternLength      = 255
)

// EncodingError indicates that none of the candidate encodings decoded the
// upload cleanly. It is fatal to the whole import.
type EncodingError struct {
	Tried []string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("could not decode file with any candidate encoding (%s)", strings.Join(e.Tried, ", "))
}

// MalformedRowError describes a single unparseable CSV row. Rows carrying it
// are skipped and reported, never fatal to the import.
type MalformedRowError struct {
	Index  int
	Raw    string
	Reason string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Index, e.Reason)
}

// StorageCommitError wraps the cause of a failed batch commit. The batch is
// rolled back in full before this is returned.
type StorageCommitError struct {
	Cause error
}

func (e *StorageCommitError) Error() string {
	return fmt.Sprintf("batch commit failed: %v", e.Cause)
}

func (e *StorageCommitError) Unwrap() error {
	return e.Cause
}
