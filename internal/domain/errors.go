package domain

import "errors"

var (
	// ErrUnauthenticated is returned when no identity is attached to the caller.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound covers both absent attempts and attempts owned by someone else.
	ErrNotFound = errors.New("quiz attempt not found")
	// ErrSupply indicates the question source was unavailable or returned unusable data.
	ErrSupply = errors.New("question supply unavailable")
	// ErrPersistence indicates the attempt store could not be reached or a write failed.
	ErrPersistence = errors.New("attempt store failure")
	// ErrAlreadyFinalized is returned by stores when a compare-and-swap finalize loses.
	ErrAlreadyFinalized = errors.New("attempt already finalized")
	// ErrInvalidAnswer marks a selected option index outside the question's options.
	ErrInvalidAnswer = errors.New("answer out of range")
	// ErrSessionBusy means another live session already holds the attempt.
	ErrSessionBusy = errors.New("attempt is open in another session")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid configuration")
)
