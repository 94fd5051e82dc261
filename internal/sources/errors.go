package sources

import (
	"errors"
	"fmt"
)

// Kind classifies item and crawl failures
type Kind string

// Failure kinds
const (
	KindInvalidSlugFromURL    Kind = "invalid_slug_from_url"
	KindFileNotFound          Kind = "file_not_found"
	KindMissingField          Kind = "missing_field"
	KindLatestVersionNotFound Kind = "latest_version_not_found"
	KindUnexpectedStatusCode  Kind = "unexpected_status_code"
	KindDecode                Kind = "decode"
)

// Sentinel errors matched with errors.Is
var (
	ErrInvalidSlugFromURL    = errors.New("invalid slug from url")
	ErrFileNotFound          = errors.New("file not found")
	ErrMissingField          = errors.New("missing field")
	ErrLatestVersionNotFound = errors.New("latest version not found")
	ErrUnexpectedStatusCode  = errors.New("unexpected status code")
	ErrMalformedPagination   = errors.New("malformed pagination")
)

// Error is a failure tied to one registry item
type Error struct {
	Kind     Kind
	Registry Registry
	Key      string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s item %s: %v", e.Registry, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func itemError(kind Kind, registry Registry, key string, err error) error {
	return &Error{Kind: kind, Registry: registry, Key: key, Err: err}
}
