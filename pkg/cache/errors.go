package cache

import (
	"github.com/NobleMathews/dev-versioner/pkg/errors"
)

// ErrClosed is returned by a [MemoryCache] used after Close.
var ErrClosed = errors.New(errors.ErrCodeInternal, "cache is closed")

// storeError tags a backend failure with the store and operation.
func storeError(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "%s cache %s", backend, op)
}
