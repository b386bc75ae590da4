// Package sentinel defines the storage-level errors shared by the postgres and
// in-memory stores. Services map them onto coded domain errors.
package sentinel

import "errors"

var (
	// ErrNotFound: no row for the key (registrar, domain, TLD, wallet).
	ErrNotFound = errors.New("not found")
	// ErrConflict: a unique key such as a registrar slug or domain name is
	// already taken.
	ErrConflict = errors.New("conflict")
	// ErrImmutable: wallet ledger entries are append-only.
	ErrImmutable = errors.New("immutable record")
	// ErrInvalidState: the row exists but cannot take the requested change,
	// for example making an inactive registrar the default.
	ErrInvalidState = errors.New("invalid state")
)
