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
	"github.com/stacklok/plugin-index/internal/versions"
)

const (
	// DefaultHangarBaseURL is the Hangar API root
	DefaultHangarBaseURL = "https://hangar.papermc.io/api/v1"

	defaultHangarPageSize = 25

	// sourceLinkPath finds the url of every settings link whose name contains
	// "Source", across all link groups.
	sourceLinkPath = `links.#.links.#(name%"*Source*")#.url`
)

type hangarRequest struct {
	offset int
	limit  int
	sort   string
}

type hangarPage struct {
	Pagination struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
		Count  int `json:"count"`
	} `json:"pagination"`
	Result []*hangarProject `json:"result"`
}

// hangarStrategy pages by offset until offset+limit reaches pagination.count.
type hangarStrategy struct{}

func (hangarStrategy) Advance(req hangarRequest) hangarRequest {
	req.offset += req.limit
	return req
}

func (hangarStrategy) HasMore(resp *hangarPage) bool {
	return resp.Pagination.Offset+resp.Pagination.Limit < resp.Pagination.Count
}

type hangarProject struct {
	Name      string `json:"name"`
	Namespace struct {
		Owner string `json:"owner"`
		Slug  string `json:"slug"`
	} `json:"namespace"`
	Stats struct {
		Downloads int32 `json:"downloads"`
		Stars     int32 `json:"stars"`
		Watchers  int32 `json:"watchers"`
	} `json:"stats"`
	CreatedAt   time.Time       `json:"createdAt"`
	LastUpdated time.Time       `json:"lastUpdated"`
	AvatarURL   string          `json:"avatarUrl"`
	Description string          `json:"description"`
	Settings    json.RawMessage `json:"settings"`
}

func (p *hangarProject) Key() string      { return p.Namespace.Slug }
func (p *hangarProject) Watermark() int64 { return p.LastUpdated.UnixMilli() }

// HangarProjects crawls Hangar projects
type HangarProjects struct {
	client  httpclient.Client
	limiter paginate.Limiter
	opts    options
	pager   *paginate.Paginator[hangarRequest, *hangarPage]
}

var _ Adapter = (*HangarProjects)(nil)

// NewHangarProjects creates the Hangar project adapter
func NewHangarProjects(client httpclient.Client, limiter paginate.Limiter, opts ...Option) *HangarProjects {
	h := &HangarProjects{
		client:  client,
		limiter: limiter,
		opts:    newOptions(DefaultHangarBaseURL, defaultHangarPageSize, opts),
	}
	h.pager = paginate.New[hangarRequest, *hangarPage](limiter, hangarStrategy{}, h.fetchPage)
	return h
}

// Registry implements Adapter
func (*HangarProjects) Registry() Registry { return Hangar }

// Item implements Adapter
func (*HangarProjects) Item() ItemKind { return KindProject }

// Populate implements Adapter
func (h *HangarProjects) Populate(ctx context.Context) iter.Seq2[[]Item, error] {
	req := hangarRequest{limit: h.opts.pageSize, sort: "newest"}
	return itemPages(h.pager.ReadAhead(ctx, req, h.opts.readAhead), hangarItems)
}

// Update implements Adapter
func (h *HangarProjects) Update(ctx context.Context) iter.Seq2[[]Item, error] {
	req := hangarRequest{limit: h.opts.pageSize, sort: "updated"}
	return itemPages(h.pager.Sequential(ctx, req), hangarItems)
}

func hangarItems(page *hangarPage) []Item {
	items := make([]Item, len(page.Result))
	for i, p := range page.Result {
		items[i] = p
	}
	return items
}

func (h *HangarProjects) fetchPage(ctx context.Context, req hangarRequest) (*hangarPage, error) {
	var page hangarPage
	_, err := getPage(ctx, h.client, h.opts.baseURL+"/projects", url.Values{
		"limit":  {strconv.Itoa(req.limit)},
		"offset": {strconv.Itoa(req.offset)},
		"sort":   {req.sort},
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// HangarVersion is the result of a Hangar latest version lookup
type HangarVersion struct {
	Name             string  `json:"name"`
	MinecraftVersion *string `json:"minecraft,omitempty"`
}

// Convert implements Adapter
func (h *HangarProjects) Convert(ctx context.Context, item Item) (Record, error) {
	raw, ok := item.(*hangarProject)
	if !ok {
		return nil, wrongItem(Hangar, item)
	}
	rec := convertHangarProject(raw)

	cacheKey := fmt.Sprintf("hangar:%s:%d", raw.Namespace.Slug, raw.LastUpdated.Unix())
	var v HangarVersion
	if cached, ok := h.opts.cache.Get(ctx, cacheKey); ok && json.Unmarshal([]byte(cached), &v) == nil {
		rec.VersionName = &v.Name
		rec.LatestMinecraftVersion = v.MinecraftVersion
		return rec, nil
	}

	v, err := h.FetchLatestVersion(ctx, raw.Namespace.Slug)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(v); err == nil {
		h.opts.cache.Set(ctx, cacheKey, string(encoded))
	}
	rec.VersionName = &v.Name
	rec.LatestMinecraftVersion = v.MinecraftVersion
	return rec, nil
}

// FetchLatestVersion returns a project's newest version and the newest
// Minecraft release it supports on Paper.
func (h *HangarProjects) FetchLatestVersion(ctx context.Context, slug string) (HangarVersion, error) {
	resp, err := getLatest(ctx, h.client, h.limiter, Hangar, slug,
		h.opts.baseURL+"/projects/"+url.PathEscape(slug)+"/versions",
		url.Values{"limit": {"1"}, "offset": {"0"}})
	if err != nil {
		return HangarVersion{}, err
	}
	if !gjson.ValidBytes(resp.Body) {
		return HangarVersion{}, decodeError(Hangar, slug, fmt.Errorf("invalid JSON from %s", resp.URL))
	}

	newest, ok := newestHangarVersion(gjson.ParseBytes(resp.Body))
	if !ok {
		return HangarVersion{}, itemError(KindLatestVersionNotFound, Hangar, slug,
			fmt.Errorf("%w: empty version list", ErrLatestVersionNotFound))
	}

	var platform []string
	for _, v := range newest.Get("platformDependencies.PAPER").Array() {
		platform = append(platform, v.String())
	}
	return HangarVersion{
		Name:             newest.Get("name").String(),
		MinecraftVersion: versions.Latest(platform),
	}, nil
}

// newestHangarVersion assumes the versions endpoint lists newest first, so the
// first entry of the first page is the latest version.
func newestHangarVersion(page gjson.Result) (gjson.Result, bool) {
	first := page.Get("result.0")
	return first, first.Exists()
}

// convertHangarProject maps a listed project to its record, without version
// information.
func convertHangarProject(raw *hangarProject) *HangarProject {
	rec := &HangarProject{
		Slug:        raw.Namespace.Slug,
		Author:      raw.Namespace.Owner,
		Name:        raw.Name,
		Description: raw.Description,
		DateCreated: raw.CreatedAt.UTC(),
		DateUpdated: raw.LastUpdated.UTC(),
		Downloads:   raw.Stats.Downloads,
		Stars:       raw.Stats.Stars,
		Watchers:    raw.Stats.Watchers,
		AvatarURL:   raw.AvatarURL,
	}
	if src, ok := hangarSourceLink(raw.Settings); ok {
		rec.SourceURL = &src
		rec.SourceRepository = repository.Extract(src)
	}
	return rec
}

// hangarSourceLink returns the first settings link whose name contains "Source".
func hangarSourceLink(settings json.RawMessage) (string, bool) {
	if len(settings) == 0 {
		return "", false
	}
	for _, group := range gjson.GetBytes(settings, sourceLinkPath).Array() {
		for _, u := range group.Array() {
			if s := u.String(); s != "" {
				return s, true
			}
		}
	}
	return "", false
}
