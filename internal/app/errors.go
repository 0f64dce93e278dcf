package app

import "errors"

// Fault sentinels. Handlers branch on these with errors.Is to pick the
// HTTP status and detail string; everything else collapses to a generic
// internal error.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrIndexingFailed      = errors.New("document indexing failed")
	ErrVectorDeleteFailed  = errors.New("vector index deletion failed")
	ErrRecordDeleteFailed  = errors.New("document record deletion failed")
)
