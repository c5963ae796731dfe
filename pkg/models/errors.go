package models

import "errors"

var (
	// ErrInvalidQuery rejects a malformed query before any collaborator call.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrSearchUnavailable marks a failed or timed-out search collaborator call.
	ErrSearchUnavailable = errors.New("search unavailable")
	// ErrGenerationFailed marks a failed text-generation call for a safe
	// decision. The request fails visibly; no fabricated answer.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrNotFound marks an audit lookup miss.
	ErrNotFound = errors.New("not found")
	// ErrClauseCycle marks an override cycle in externally supplied clause data.
	ErrClauseCycle = errors.New("clause override cycle")
)
