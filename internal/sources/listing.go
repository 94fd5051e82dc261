package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"strings"

	"github.com/stacklok/plugin-index/internal/httpclient"
	"github.com/stacklok/plugin-index/internal/paginate"
)

// options are shared by every adapter constructor
type options struct {
	baseURL   string
	pageSize  int
	readAhead int
	cache     VersionCache
}

// Option configures an adapter
type Option func(*options)

// WithBaseURL overrides the registry API root
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		if baseURL != "" {
			o.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithPageSize sets the number of items requested per page
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithReadAhead sets how many pages a populate crawl keeps in flight
func WithReadAhead(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.readAhead = n
		}
	}
}

// WithVersionCache sets the cache consulted before latest version lookups
func WithVersionCache(c VersionCache) Option {
	return func(o *options) {
		if c != nil {
			o.cache = c
		}
	}
}

func newOptions(baseURL string, pageSize int, opts []Option) options {
	o := options{
		baseURL:   baseURL,
		pageSize:  pageSize,
		readAhead: 4,
		cache:     nopVersionCache{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// itemPages maps a page sequence to item batches
func itemPages[Resp any](seq iter.Seq2[Resp, error], items func(Resp) []Item) iter.Seq2[[]Item, error] {
	return func(yield func([]Item, error) bool) {
		for resp, err := range seq {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(items(resp), nil) {
				return
			}
		}
	}
}

// getPage fetches a listing page. Any non-2xx status or undecodable body is an
// error, which ends the crawl.
func getPage(ctx context.Context, client httpclient.Client, rawURL string, query url.Values, out any) (*httpclient.Response, error) {
	resp, err := client.Get(ctx, rawURL, query)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", resp.URL, err)
	}
	return resp, nil
}

// getLatest performs a secondary lookup and classifies its status code.
func getLatest(
	ctx context.Context, client httpclient.Client, limiter paginate.Limiter,
	registry Registry, key, rawURL string, query url.Values,
) (*httpclient.Response, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := client.Get(ctx, rawURL, query)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.OK():
		return resp, nil
	case resp.StatusCode == 404:
		return nil, itemError(KindLatestVersionNotFound, registry, key,
			fmt.Errorf("%w: %s", ErrLatestVersionNotFound, resp.URL))
	default:
		return nil, itemError(KindUnexpectedStatusCode, registry, key,
			fmt.Errorf("%w: %d from %s", ErrUnexpectedStatusCode, resp.StatusCode, resp.URL))
	}
}

func decodeError(registry Registry, key string, err error) error {
	return itemError(KindDecode, registry, key, err)
}

func wrongItem(registry Registry, item Item) error {
	return itemError(KindDecode, registry, item.Key(), fmt.Errorf("unexpected item type %T", item))
}

func itoa(i int32) string {
	return strconv.FormatInt(int64(i), 10)
}

func ptr[T any](v T) *T {
	return &v
}
