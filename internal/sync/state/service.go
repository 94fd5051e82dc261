// Package state records ingest runs and reads the watermarks update runs stop at.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/stacklok/plugin-index/internal/sources"
)

// Action names the kind of run an ingest log entry describes
type Action string

// Run actions
const (
	ActionPopulate Action = "populate"
	ActionUpdate   Action = "update"
	ActionRefresh  Action = "refresh"
)

// ErrNoLog is returned when no run has been recorded for a registry and item
var ErrNoLog = errors.New("no ingest log")

// Entry is one append-only ingest log record
type Entry struct {
	ID             int64            `json:"id"`
	Action         Action           `json:"action"`
	Registry       sources.Registry `json:"registry"`
	Item           sources.ItemKind `json:"item"`
	DateStarted    time.Time        `json:"date_started"`
	DateFinished   time.Time        `json:"date_finished"`
	ItemsProcessed int              `json:"items_processed"`
	Success        bool             `json:"success"`
}

// Service provides the ingest log and update watermarks.
//
//go:generate mockgen -destination=mocks/mock_service.go -package=mocks github.com/stacklok/plugin-index/internal/sync/state Service
type Service interface {
	// Append records a finished run and returns its id.
	Append(ctx context.Context, entry Entry) (int64, error)
	// Latest returns the most recently finished run for the pair, or ErrNoLog.
	Latest(ctx context.Context, registry sources.Registry, item sources.ItemKind) (*Entry, error)
	// LatestSuccessful is Latest restricted to successful runs.
	LatestSuccessful(ctx context.Context, registry sources.Registry, item sources.ItemKind) (*Entry, error)
	// List returns up to limit entries, newest first.
	List(ctx context.Context, limit int) ([]Entry, error)
	// Watermark returns the largest stored item watermark for the pair: the
	// newest update time in unix seconds, or the largest id for Spigot authors.
	// An empty table yields zero.
	Watermark(ctx context.Context, registry sources.Registry, item sources.ItemKind) (int64, error)
}
