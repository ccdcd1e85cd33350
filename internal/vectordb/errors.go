package vectordb

import "errors"

var (
	// ErrNotInitialized is returned by Query before Initialize or the first
	// successful Add.
	ErrNotInitialized = errors.New("vectordb: index not initialized")

	// ErrEmbed wraps embedding failures from Add and Query.
	ErrEmbed = errors.New("vectordb: embedding failed")

	// ErrIndexInit wraps failures from Initialize.
	ErrIndexInit = errors.New("vectordb: index initialization failed")

	// ErrDimensionMismatch is returned when a vector does not match the
	// dimensionality already established by the index.
	ErrDimensionMismatch = errors.New("vectordb: vector dimension mismatch")
)
