package models

import "errors"

// ErrInvalidInput marks values rejected at the boundary: negative or non-numeric
// counts, unknown breeds, stages or sexes, malformed or inverted date ranges.
var ErrInvalidInput = errors.New("invalid input")

// ErrStorageFailure marks errors raised by the persistence backend.
var ErrStorageFailure = errors.New("storage failure")

// ErrExportFailure marks errors raised while rendering or writing an export file.
var ErrExportFailure = errors.New("export failure")
