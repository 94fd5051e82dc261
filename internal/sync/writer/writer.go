// Package writer persists converted registry records
package writer

import (
	"context"
	"errors"

	"github.com/stacklok/plugin-index/internal/sources"
)

//go:generate mockgen -destination=mocks/mock_writer.go -package=mocks -source=writer.go Writer

// ErrMissingReference is returned when a record points at a row that is not
// stored yet, such as a resource whose author has not been ingested.
var ErrMissingReference = errors.New("missing referenced record")

// Writer persists one record with a single keyed upsert.
type Writer interface {
	Store(ctx context.Context, record sources.Record) error
}
