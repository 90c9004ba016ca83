package session

import "errors"

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUnknownSource is returned for a source name other than "a" or "b".
	ErrUnknownSource = errors.New("unknown source")
	// ErrSourcesMissing is returned when reconciling before both sources
	// are loaded.
	ErrSourcesMissing = errors.New("both sources must be loaded")
	// ErrInvalidColumns is returned when a column mapping is incomplete or
	// names a column the source does not have.
	ErrInvalidColumns = errors.New("invalid column mapping")
	// ErrNoResults is returned by queries made before the first reconcile.
	ErrNoResults = errors.New("sources have not been reconciled yet")
	// ErrOutsideProvider is returned when selecting a record that does not
	// belong to the active provider.
	ErrOutsideProvider = errors.New("record does not belong to the active provider")
)
