package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions without payload.
var (
	// ErrUnauthorized means the caller does not own the referenced entity.
	// No side effects occurred.
	ErrUnauthorized = errors.New("acces non autorise")
	// ErrNotFound means the referenced entity is absent.
	ErrNotFound = errors.New("introuvable")
)

// ValidationError carries the first failing wizard step and its field errors.
// Fully recoverable: when returned, no storage was touched.
type ValidationError struct {
	Step   int               `json:"step"`
	Errors map[string]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation echouee a l'etape %d (%d champs)", e.Step, len(e.Errors))
}

// ArtifactError is a per-field artifact failure (bad type, oversize, move
// failure). Field is the wire name, e.g. "photo_principale" or
// "pieces_2_photos".
type ArtifactError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ArtifactError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("artefact %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("artefact %s: %s", e.Field, e.Reason)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// PersistenceError wraps a relational failure. The transaction was rolled
// back; the caller sees a generic message, the cause is for server logs.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ArchivalError is a fatal saga failure. Phase names where the saga halted;
// phases before it completed and are not rolled back, phases after it never
// ran. Enough context to resume manually.
type ArchivalError struct {
	Phase string
	Err   error
}

func (e *ArchivalError) Error() string {
	return fmt.Sprintf("archivage, phase %s: %v", e.Phase, e.Err)
}

func (e *ArchivalError) Unwrap() error { return e.Err }
