package domain

import "errors"

// Error kinds returned across component boundaries. Callers inspect them
// with errors.Is; implementations wrap them with fmt.Errorf("...: %w").
var (
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
	ErrEmptyInput          = errors.New("empty input")
	ErrNotFound            = errors.New("index not found")
	ErrIndexNotReady       = errors.New("index not ready")
	ErrGenerationFailed    = errors.New("generation failed")
	ErrRetrievalFailed     = errors.New("retrieval failed")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrModelMismatch       = errors.New("embedding model mismatch")
)

// Outer kinds come before the kinds they may wrap.
var kinds = []error{
	ErrIndexNotReady,
	ErrRetrievalFailed,
	ErrProviderUnavailable,
	ErrEmptyInput,
	ErrNotFound,
	ErrGenerationFailed,
	ErrInvalidArgument,
	ErrModelMismatch,
}

// Kind returns the error kind wrapped by err, or nil if err carries none.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
