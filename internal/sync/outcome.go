package sync

import (
	"errors"
	"fmt"

	"github.com/stacklok/plugin-index/internal/sources"
)

// OutcomeKind classifies what happened to one item
type OutcomeKind int

// Outcome kinds
const (
	OutcomeProcessed OutcomeKind = iota
	OutcomeConversionFailed
	OutcomeVersionLookupFailed
	OutcomePersistFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeProcessed:
		return "processed"
	case OutcomeConversionFailed:
		return "conversion_failed"
	case OutcomeVersionLookupFailed:
		return "version_lookup_failed"
	case OutcomePersistFailed:
		return "persist_failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the result of processing one item
type Outcome struct {
	Key  string
	Kind OutcomeKind
	Err  error
}

// Stats accumulates the outcomes of a run
type Stats struct {
	Pages     int
	Seen      int
	Processed int
	Failed    map[OutcomeKind]int
}

func (s *Stats) add(o Outcome) {
	s.Seen++
	if o.Kind == OutcomeProcessed {
		s.Processed++
		return
	}
	if s.Failed == nil {
		s.Failed = make(map[OutcomeKind]int)
	}
	s.Failed[o.Kind]++
}

// FailedTotal is the number of items that were not persisted
func (s Stats) FailedTotal() int {
	return s.Seen - s.Processed
}

// convertOutcome classifies a Convert error. Failures of the secondary
// lookup, including transport errors, are version lookup failures; anything
// the adapter rejected while mapping fields is a conversion failure.
func convertOutcome(key string, err error) Outcome {
	switch sources.KindOf(err) {
	case sources.KindInvalidSlugFromURL, sources.KindFileNotFound, sources.KindMissingField, sources.KindDecode:
		return Outcome{Key: key, Kind: OutcomeConversionFailed, Err: err}
	default:
		return Outcome{Key: key, Kind: OutcomeVersionLookupFailed, Err: err}
	}
}

// Error is a fatal run failure
type Error struct {
	Err      error
	Action   string
	Registry sources.Registry
	Item     sources.ItemKind
	// Status is the HTTP status that aborted the crawl, or 0 for other failures
	Status int
	Stats  Stats
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s %s failed after %d items: %v", e.Action, e.Registry, e.Item, e.Stats.Seen, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRunError reports whether err is a fatal run failure
func IsRunError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
