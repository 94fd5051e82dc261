package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/stacklok/plugin-index/internal/httpclient"
	"github.com/stacklok/plugin-index/internal/naming"
	"github.com/stacklok/plugin-index/internal/paginate"
	"github.com/stacklok/plugin-index/internal/repository"
	"github.com/stacklok/plugin-index/internal/versions"
)

const (
	// DefaultSpigotBaseURL is the Spiget API root
	DefaultSpigotBaseURL = "https://api.spiget.org/v2"

	defaultSpigotPageSize = 100

	spigotResourceFields = "id,name,tag,releaseDate,updateDate,downloads,likes,premium," +
		"testedVersions,icon,sourceCodeLink,author,version,file"
)

// slugPattern extracts "foo-bar" from "resources/foo-bar.1234/download?version=5".
var slugPattern = regexp.MustCompile(`resources/(.+)\.\d+/download`)

type spigotRequest struct {
	page int
	size int
	sort string
}

func (r spigotRequest) query() url.Values {
	return url.Values{
		"page": {strconv.Itoa(r.page)},
		"size": {strconv.Itoa(r.size)},
		"sort": {r.sort},
	}
}

type spigotPage[T any] struct {
	items []T
	index int
	count int
}

// spigotStrategy pages by 1-based page number. The API reports progress in
// the X-Page-Index and X-Page-Count headers.
type spigotStrategy[T any] struct{}

func (spigotStrategy[T]) Advance(req spigotRequest) spigotRequest {
	req.page++
	return req
}

func (spigotStrategy[T]) HasMore(resp spigotPage[T]) bool {
	return resp.index < resp.count
}

func fetchSpigotPage[T any](client httpclient.Client, rawURL string, extra url.Values) paginate.FetchFunc[spigotRequest, spigotPage[T]] {
	return func(ctx context.Context, req spigotRequest) (spigotPage[T], error) {
		query := req.query()
		for k, v := range extra {
			query[k] = v
		}

		var page spigotPage[T]
		resp, err := getPage(ctx, client, rawURL, query, &page.items)
		if err != nil {
			return page, err
		}
		page.index, page.count, err = pageHeaders(resp.Header)
		if err != nil {
			return page, fmt.Errorf("%s: %w", resp.URL, err)
		}
		return page, nil
	}
}

func pageHeaders(h http.Header) (index, count int, err error) {
	index, err = strconv.Atoi(h.Get("X-Page-Index"))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: X-Page-Index %q", ErrMalformedPagination, h.Get("X-Page-Index"))
	}
	count, err = strconv.Atoi(h.Get("X-Page-Count"))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: X-Page-Count %q", ErrMalformedPagination, h.Get("X-Page-Count"))
	}
	return index, count, nil
}

type spigotIcon struct {
	URL  string `json:"url"`
	Data string `json:"data"`
}

type spigotRef struct {
	ID int32 `json:"id"`
}

type spigotFile struct {
	URL string `json:"url"`
}

// spigotResource is a resource as listed by Spiget. Optional fields are
// pointers so that absence can be told apart from zero.
type spigotResource struct {
	ID             int32       `json:"id"`
	Name           string      `json:"name"`
	Tag            string      `json:"tag"`
	ReleaseDate    int64       `json:"releaseDate"`
	UpdateDate     int64       `json:"updateDate"`
	Downloads      int32       `json:"downloads"`
	Likes          *int32      `json:"likes"`
	Premium        *bool       `json:"premium"`
	TestedVersions []string    `json:"testedVersions"`
	Icon           *spigotIcon `json:"icon"`
	SourceCodeLink *string     `json:"sourceCodeLink"`
	Author         *spigotRef  `json:"author"`
	Version        *spigotRef  `json:"version"`
	File           *spigotFile `json:"file"`
}

func (r *spigotResource) Key() string      { return itoa(r.ID) }
func (r *spigotResource) Watermark() int64 { return r.UpdateDate * 1000 }

// SpigotResources crawls Spigot resources
type SpigotResources struct {
	client  httpclient.Client
	limiter paginate.Limiter
	opts    options
	pager   *paginate.Paginator[spigotRequest, spigotPage[*spigotResource]]
}

var _ Adapter = (*SpigotResources)(nil)

// NewSpigotResources creates the Spigot resource adapter. The limiter should be
// shared with every other adapter talking to Spiget.
func NewSpigotResources(client httpclient.Client, limiter paginate.Limiter, opts ...Option) *SpigotResources {
	o := newOptions(DefaultSpigotBaseURL, defaultSpigotPageSize, opts)
	return &SpigotResources{
		client:  client,
		limiter: limiter,
		opts:    o,
		pager: paginate.New[spigotRequest, spigotPage[*spigotResource]](limiter, spigotStrategy[*spigotResource]{},
			fetchSpigotPage[*spigotResource](client, o.baseURL+"/resources", url.Values{"fields": {spigotResourceFields}})),
	}
}

// Registry implements Adapter
func (*SpigotResources) Registry() Registry { return Spigot }

// Item implements Adapter
func (*SpigotResources) Item() ItemKind { return KindResource }

// populateRequest orders the listing by ascending id
func (s *SpigotResources) populateRequest() spigotRequest {
	return spigotRequest{page: 1, size: s.opts.pageSize, sort: "+id"}
}

// updateRequest orders the listing by most recently updated first
func (s *SpigotResources) updateRequest() spigotRequest {
	return spigotRequest{page: 1, size: s.opts.pageSize, sort: "-updateDate"}
}

// Populate implements Adapter
func (s *SpigotResources) Populate(ctx context.Context) iter.Seq2[[]Item, error] {
	return itemPages(s.pager.ReadAhead(ctx, s.populateRequest(), s.opts.readAhead), spigotItems[*spigotResource])
}

// Update implements Adapter
func (s *SpigotResources) Update(ctx context.Context) iter.Seq2[[]Item, error] {
	return itemPages(s.pager.Sequential(ctx, s.updateRequest()), spigotItems[*spigotResource])
}

func spigotItems[T Item](page spigotPage[T]) []Item {
	items := make([]Item, len(page.items))
	for i, it := range page.items {
		items[i] = it
	}
	return items
}

// Convert implements Adapter
func (s *SpigotResources) Convert(ctx context.Context, item Item) (Record, error) {
	raw, ok := item.(*spigotResource)
	if !ok {
		return nil, wrongItem(Spigot, item)
	}
	rec, err := convertSpigotResource(raw)
	if err != nil {
		return nil, err
	}

	cacheKey := "spigot:" + itoa(rec.VersionID)
	if name, ok := s.opts.cache.Get(ctx, cacheKey); ok {
		rec.VersionName = &name
		return rec, nil
	}
	name, err := s.FetchLatestVersion(ctx, raw.ID)
	if err != nil {
		return nil, err
	}
	s.opts.cache.Set(ctx, cacheKey, name)
	rec.VersionName = &name
	return rec, nil
}

// FetchLatestVersion returns the name of a resource's latest version
func (s *SpigotResources) FetchLatestVersion(ctx context.Context, id int32) (string, error) {
	key := itoa(id)
	resp, err := getLatest(ctx, s.client, s.limiter, Spigot, key,
		fmt.Sprintf("%s/resources/%d/versions/latest", s.opts.baseURL, id), nil)
	if err != nil {
		return "", err
	}
	var v struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return "", decodeError(Spigot, key, err)
	}
	return v.Name, nil
}

// convertSpigotResource maps a listed resource to its record, without the
// latest version name.
func convertSpigotResource(raw *spigotResource) (*SpigotResource, error) {
	key := raw.Key()
	if raw.File == nil {
		return nil, itemError(KindFileNotFound, Spigot, key, ErrFileNotFound)
	}
	m := slugPattern.FindStringSubmatch(raw.File.URL)
	if m == nil {
		return nil, itemError(KindInvalidSlugFromURL, Spigot, key,
			fmt.Errorf("%w: %q", ErrInvalidSlugFromURL, raw.File.URL))
	}
	if raw.Author == nil {
		return nil, itemError(KindMissingField, Spigot, key, fmt.Errorf("%w: author", ErrMissingField))
	}
	if raw.Version == nil {
		return nil, itemError(KindMissingField, Spigot, key, fmt.Errorf("%w: version", ErrMissingField))
	}

	rec := &SpigotResource{
		ID:                     raw.ID,
		Name:                   raw.Name,
		ParsedName:             naming.NormalizePtr(raw.Name),
		Description:            raw.Tag,
		Slug:                   m[1],
		AuthorID:               raw.Author.ID,
		DateCreated:            time.Unix(raw.ReleaseDate, 0).UTC(),
		DateUpdated:            time.Unix(raw.UpdateDate, 0).UTC(),
		Downloads:              raw.Downloads,
		Abandoned:              naming.IsAbandoned(raw.Name),
		LatestMinecraftVersion: lastTestedVersion(raw.TestedVersions),
		VersionID:              raw.Version.ID,
	}
	if raw.Likes != nil {
		rec.Likes = *raw.Likes
	}
	if raw.Premium != nil {
		rec.Premium = *raw.Premium
	}
	if raw.Icon != nil {
		rec.IconURL = raw.Icon.URL
		rec.IconData = raw.Icon.Data
	}
	if raw.SourceCodeLink != nil && *raw.SourceCodeLink != "" {
		rec.SourceURL = raw.SourceCodeLink
		rec.SourceRepository = repository.Extract(*raw.SourceCodeLink)
	}
	return rec, nil
}

// lastTestedVersion assumes Spiget lists tested versions oldest first.
func lastTestedVersion(tested []string) *string {
	return versions.LastRelease(tested)
}
