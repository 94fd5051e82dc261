package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/stacklok/plugin-index/internal/httpclient"
	"github.com/stacklok/plugin-index/internal/paginate"
	"github.com/stacklok/plugin-index/internal/repository"
)

const (
	// DefaultModrinthBaseURL is the Modrinth API root
	DefaultModrinthBaseURL = "https://api.modrinth.com/v2"

	defaultModrinthPageSize = 100

	modrinthPluginFacets = `[["project_type:plugin"]]`
)

type modrinthRequest struct {
	offset int
	limit  int
	index  string
}

type modrinthPage struct {
	Hits      []*modrinthHit `json:"hits"`
	Offset    int            `json:"offset"`
	Limit     int            `json:"limit"`
	TotalHits int            `json:"total_hits"`
}

// modrinthStrategy pages by offset until offset+limit reaches total_hits.
type modrinthStrategy struct{}

func (modrinthStrategy) Advance(req modrinthRequest) modrinthRequest {
	req.offset += req.limit
	return req
}

func (modrinthStrategy) HasMore(resp *modrinthPage) bool {
	return resp.Offset+resp.Limit < resp.TotalHits
}

type modrinthHit struct {
	ProjectID          string    `json:"project_id"`
	Slug               string    `json:"slug"`
	Author             string    `json:"author"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Versions           []string  `json:"versions"`
	Downloads          int32     `json:"downloads"`
	Follows            int32     `json:"follows"`
	IconURL            string    `json:"icon_url"`
	DateCreated        time.Time `json:"date_created"`
	DateModified       time.Time `json:"date_modified"`
	LatestVersion      string    `json:"latest_version"`
	MonetizationStatus *string   `json:"monetization_status"`

	// Filled from the bulk project lookup.
	sourceURL *string
	status    string
}

func (h *modrinthHit) Key() string      { return h.ProjectID }
func (h *modrinthHit) Watermark() int64 { return h.DateModified.UnixMilli() }

// ModrinthProjects crawls Modrinth plugin projects
type ModrinthProjects struct {
	client  httpclient.Client
	limiter paginate.Limiter
	opts    options
	pager   *paginate.Paginator[modrinthRequest, *modrinthPage]
}

var _ Adapter = (*ModrinthProjects)(nil)

// NewModrinthProjects creates the Modrinth project adapter
func NewModrinthProjects(client httpclient.Client, limiter paginate.Limiter, opts ...Option) *ModrinthProjects {
	m := &ModrinthProjects{
		client:  client,
		limiter: limiter,
		opts:    newOptions(DefaultModrinthBaseURL, defaultModrinthPageSize, opts),
	}
	m.pager = paginate.New[modrinthRequest, *modrinthPage](limiter, modrinthStrategy{}, m.fetchPage)
	return m
}

// Registry implements Adapter
func (*ModrinthProjects) Registry() Registry { return Modrinth }

// Item implements Adapter
func (*ModrinthProjects) Item() ItemKind { return KindProject }

// Populate implements Adapter
func (m *ModrinthProjects) Populate(ctx context.Context) iter.Seq2[[]Item, error] {
	req := modrinthRequest{limit: m.opts.pageSize, index: "newest"}
	return itemPages(m.pager.ReadAhead(ctx, req, m.opts.readAhead), modrinthItems)
}

// Update implements Adapter
func (m *ModrinthProjects) Update(ctx context.Context) iter.Seq2[[]Item, error] {
	req := modrinthRequest{limit: m.opts.pageSize, index: "updated"}
	return itemPages(m.pager.Sequential(ctx, req), modrinthItems)
}

func modrinthItems(page *modrinthPage) []Item {
	items := make([]Item, len(page.Hits))
	for i, h := range page.Hits {
		items[i] = h
	}
	return items
}

func (m *ModrinthProjects) fetchPage(ctx context.Context, req modrinthRequest) (*modrinthPage, error) {
	var page modrinthPage
	_, err := getPage(ctx, m.client, m.opts.baseURL+"/search", url.Values{
		"limit":  {strconv.Itoa(req.limit)},
		"offset": {strconv.Itoa(req.offset)},
		"index":  {req.index},
		"facets": {modrinthPluginFacets},
	}, &page)
	if err != nil {
		return nil, err
	}
	if err := m.enrich(ctx, page.Hits); err != nil {
		return nil, fmt.Errorf("failed to enrich modrinth page at offset %d: %w", req.offset, err)
	}
	return &page, nil
}

// enrich fills source URL and status, which search hits do not carry, with
// one bulk project request per page.
func (m *ModrinthProjects) enrich(ctx context.Context, hits []*modrinthHit) error {
	if len(hits) == 0 {
		return nil
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ProjectID
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return err
	}

	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := m.client.Get(ctx, m.opts.baseURL+"/projects", url.Values{"ids": {string(encoded)}})
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if !gjson.ValidBytes(resp.Body) {
		return fmt.Errorf("invalid JSON from %s", resp.URL)
	}

	type info struct {
		sourceURL *string
		status    string
	}
	byID := make(map[string]info, len(hits))
	gjson.ParseBytes(resp.Body).ForEach(func(_, p gjson.Result) bool {
		var i info
		if src := p.Get("source_url"); src.Type == gjson.String && src.String() != "" {
			i.sourceURL = ptr(src.String())
		}
		i.status = p.Get("status").String()
		byID[p.Get("id").String()] = i
		return true
	})

	for _, h := range hits {
		if i, ok := byID[h.ProjectID]; ok {
			h.sourceURL = i.sourceURL
			h.status = i.status
		}
	}
	return nil
}

// Convert implements Adapter
func (m *ModrinthProjects) Convert(ctx context.Context, item Item) (Record, error) {
	hit, ok := item.(*modrinthHit)
	if !ok {
		return nil, wrongItem(Modrinth, item)
	}
	rec := convertModrinthHit(hit)
	if hit.LatestVersion == "" {
		return nil, itemError(KindMissingField, Modrinth, hit.ProjectID,
			fmt.Errorf("%w: latest_version", ErrMissingField))
	}

	cacheKey := "modrinth:" + hit.LatestVersion
	if name, ok := m.opts.cache.Get(ctx, cacheKey); ok {
		rec.VersionName = &name
		return rec, nil
	}
	name, err := m.FetchLatestVersion(ctx, hit.ProjectID, hit.LatestVersion)
	if err != nil {
		return nil, err
	}
	m.opts.cache.Set(ctx, cacheKey, name)
	rec.VersionName = &name
	return rec, nil
}

// FetchLatestVersion returns the version number of a Modrinth version id
func (m *ModrinthProjects) FetchLatestVersion(ctx context.Context, projectID, versionID string) (string, error) {
	resp, err := getLatest(ctx, m.client, m.limiter, Modrinth, projectID,
		m.opts.baseURL+"/version/"+url.PathEscape(versionID), nil)
	if err != nil {
		return "", err
	}
	var v struct {
		VersionNumber string `json:"version_number"`
	}
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return "", decodeError(Modrinth, projectID, err)
	}
	return v.VersionNumber, nil
}

// convertModrinthHit maps a search hit to its record. Modrinth titles are
// already clean and are used as is.
func convertModrinthHit(hit *modrinthHit) *ModrinthProject {
	rec := &ModrinthProject{
		ID:                     hit.ProjectID,
		Slug:                   hit.Slug,
		Title:                  hit.Title,
		Description:            hit.Description,
		Author:                 hit.Author,
		DateCreated:            hit.DateCreated.UTC(),
		DateModified:           hit.DateModified.UTC(),
		Downloads:              hit.Downloads,
		Follows:                hit.Follows,
		VersionID:              hit.LatestVersion,
		IconURL:                hit.IconURL,
		Archived:               hit.status == "archived",
		LatestMinecraftVersion: lastTestedVersion(hit.Versions),
		SourceURL:              hit.sourceURL,
	}
	if hit.MonetizationStatus != nil {
		rec.MonetizationStatus = *hit.MonetizationStatus
	}
	if hit.sourceURL != nil {
		rec.SourceRepository = repository.Extract(*hit.sourceURL)
	}
	return rec
}
