package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: uniqueness constraint collision
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly; state rules like cooldowns and terminal statuses live in the
// service layer, not here.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
