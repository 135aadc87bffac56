package service

import "errors"

var (
	// ErrRecordNotFound means the target id is absent from both the
	// in-memory list and, after the bounded retry-read, the durable store.
	ErrRecordNotFound = errors.New("record not found")

	// ErrPreconditionFailed means an enrichment job was requested without a
	// completed transcript.
	ErrPreconditionFailed = errors.New("transcript not completed")
)
