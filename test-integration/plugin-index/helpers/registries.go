// Package helpers provides fake registry APIs and a server harness for the
// integration suite.
package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ModrinthFixture is one Modrinth project served by FakeRegistries
type ModrinthFixture struct {
	ID            string
	Slug          string
	Title         string
	Description   string
	Author        string
	Downloads     int32
	Follows       int32
	GameVersions  []string
	VersionID     string
	VersionNumber string
	SourceURL     string
	Created       time.Time
	Modified      time.Time
}

// HangarFixture is one Hangar project served by FakeRegistries
type HangarFixture struct {
	Slug        string
	Owner       string
	Name        string
	Description string
	Downloads   int32
	Stars       int32
	Watchers    int32
	Version     string
	Paper       []string
	SourceURL   string
	Created     time.Time
	Updated     time.Time
}

// FakeRegistries serves the Spiget, Modrinth and Hangar endpoints the
// adapters call, under /spigot, /modrinth and /hangar. Spigot is empty.
type FakeRegistries struct {
	*httptest.Server

	mu       sync.Mutex
	modrinth []ModrinthFixture
	hangar   []HangarFixture
	requests map[string]int
}

// NewFakeRegistries starts the fake registry server
func NewFakeRegistries() *FakeRegistries {
	f := &FakeRegistries{requests: make(map[string]int)}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /spigot/{listing}", f.spigotListing)
	mux.HandleFunc("GET /modrinth/search", f.modrinthSearch)
	mux.HandleFunc("GET /modrinth/projects", f.modrinthProjects)
	mux.HandleFunc("GET /modrinth/version/{id}", f.modrinthVersion)
	mux.HandleFunc("GET /hangar/projects", f.hangarProjects)
	mux.HandleFunc("GET /hangar/projects/{slug}/versions", f.hangarVersions)
	f.Server = httptest.NewServer(f.count(mux))
	return f
}

// SetModrinth replaces the Modrinth projects
func (f *FakeRegistries) SetModrinth(projects ...ModrinthFixture) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modrinth = projects
}

// SetHangar replaces the Hangar projects
func (f *FakeRegistries) SetHangar(projects ...HangarFixture) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hangar = projects
}

// Requests returns how often a path prefix was requested
func (f *FakeRegistries) Requests(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for path, c := range f.requests {
		if strings.HasPrefix(path, prefix) {
			n += c
		}
	}
	return n
}

func (f *FakeRegistries) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests[r.URL.Path]++
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// window returns the offset and limit query parameters
func window(r *http.Request, defaultLimit int) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	return offset, limit
}

func page[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return []T{}
	}
	return all[offset:min(offset+limit, len(all))]
}

func (*FakeRegistries) spigotListing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("X-Page-Index", "1")
	w.Header().Set("X-Page-Count", "1")
	writeJSON(w, []any{})
}

// newestFirst orders by modification time, newest first, which is what both
// registries do for their "updated" sort.
func newestFirst[T any](all []T, at func(T) time.Time) []T {
	out := slices.Clone(all)
	slices.SortStableFunc(out, func(a, b T) int { return at(b).Compare(at(a)) })
	return out
}

func (f *FakeRegistries) modrinthSearch(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	all := newestFirst(f.modrinth, func(p ModrinthFixture) time.Time { return p.Modified })
	f.mu.Unlock()

	offset, limit := window(r, 100)
	hits := make([]map[string]any, 0, limit)
	for _, p := range page(all, offset, limit) {
		hits = append(hits, map[string]any{
			"project_id":     p.ID,
			"slug":           p.Slug,
			"title":          p.Title,
			"description":    p.Description,
			"author":         p.Author,
			"versions":       p.GameVersions,
			"downloads":      p.Downloads,
			"follows":        p.Follows,
			"date_created":   p.Created,
			"date_modified":  p.Modified,
			"latest_version": p.VersionID,
		})
	}
	writeJSON(w, map[string]any{
		"hits":       hits,
		"offset":     offset,
		"limit":      limit,
		"total_hits": len(all),
	})
}

func (f *FakeRegistries) modrinthProjects(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if err := json.Unmarshal([]byte(r.URL.Query().Get("ids")), &ids); err != nil {
		http.Error(w, "bad ids", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []map[string]any{}
	for _, p := range f.modrinth {
		if !slices.Contains(ids, p.ID) {
			continue
		}
		project := map[string]any{"id": p.ID, "status": "approved", "source_url": nil}
		if p.SourceURL != "" {
			project["source_url"] = p.SourceURL
		}
		out = append(out, project)
	}
	writeJSON(w, out)
}

func (f *FakeRegistries) modrinthVersion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.modrinth {
		if p.VersionID == id {
			writeJSON(w, map[string]any{"id": id, "version_number": p.VersionNumber})
			return
		}
	}
	http.NotFound(w, r)
}

func (f *FakeRegistries) hangarProjects(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	all := newestFirst(f.hangar, func(p HangarFixture) time.Time { return p.Updated })
	f.mu.Unlock()

	offset, limit := window(r, 25)
	result := make([]map[string]any, 0, limit)
	for _, p := range page(all, offset, limit) {
		settings := map[string]any{"links": []any{}}
		if p.SourceURL != "" {
			settings["links"] = []any{map[string]any{
				"id":   0,
				"type": "top",
				"links": []any{
					map[string]any{"id": 0, "name": "Source", "url": p.SourceURL},
				},
			}}
		}
		result = append(result, map[string]any{
			"name":        p.Name,
			"namespace":   map[string]any{"owner": p.Owner, "slug": p.Slug},
			"stats":       map[string]any{"downloads": p.Downloads, "stars": p.Stars, "watchers": p.Watchers},
			"createdAt":   p.Created,
			"lastUpdated": p.Updated,
			"description": p.Description,
			"settings":    settings,
		})
	}
	writeJSON(w, map[string]any{
		"pagination": map[string]any{"limit": limit, "offset": offset, "count": len(all)},
		"result":     result,
	})
}

func (f *FakeRegistries) hangarVersions(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.hangar {
		if p.Slug == slug {
			writeJSON(w, map[string]any{
				"pagination": map[string]any{"limit": 1, "offset": 0, "count": 1},
				"result": []any{map[string]any{
					"name":                 p.Version,
					"platformDependencies": map[string]any{"PAPER": p.Paper},
				}},
			})
			return
		}
	}
	http.NotFound(w, r)
}
