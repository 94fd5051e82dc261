// Package v1 provides the search and ingest freshness endpoints.
package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/plugin-index/internal/api/common"
	"github.com/stacklok/plugin-index/internal/service"
	"github.com/stacklok/plugin-index/internal/sources"
	"github.com/stacklok/plugin-index/internal/sync/state"
)

// SearchResponse is one page of search results
type SearchResponse struct {
	Results   []service.Result `json:"results"`
	FullCount int64            `json:"full_count"`
	Limit     int              `json:"limit"`
	Offset    int              `json:"offset"`
}

// IngestLogsResponse lists recent ingest runs
type IngestLogsResponse struct {
	Logs []state.Entry `json:"logs"`
}

// Routes holds the v1 handlers' dependencies
type Routes struct {
	service service.SearchService
	logs    state.Service
}

// Router creates the v1 router
func Router(svc service.SearchService, logs state.Service) http.Handler {
	routes := &Routes{service: svc, logs: logs}

	r := chi.NewRouter()
	r.Get("/search", routes.search)
	r.Get("/ingest-logs", routes.listIngestLogs)
	r.Get("/ingest-logs/latest", routes.latestIngestLog)
	return r
}

// search handles GET /v1/search
func (rr *Routes) search(w http.ResponseWriter, r *http.Request) {
	params, err := searchParams(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	results, err := rr.service.Search(r.Context(), params)
	switch {
	case errors.Is(err, service.ErrInvalidSort),
		errors.Is(err, service.ErrNoRegistries),
		errors.Is(err, service.ErrNoFields),
		errors.Is(err, service.ErrInvalidPagination):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Search failed", "error", err)
		common.WriteErrorResponse(w, "search failed", http.StatusInternalServerError)
		return
	}

	resp := SearchResponse{
		Results: results,
		Limit:   min(params.Limit, service.MaxPageSize),
		Offset:  params.Offset,
	}
	if resp.Results == nil {
		resp.Results = []service.Result{}
	}
	if len(results) > 0 {
		resp.FullCount = results[0].FullCount
	}
	if resp.Limit == 0 {
		resp.Limit = service.DefaultPageSize
	}
	common.WriteJSONResponse(w, resp, http.StatusOK)
}

func searchParams(r *http.Request) (service.SearchParams, error) {
	p := service.SearchParams{
		Query: r.URL.Query().Get("q"),
		Sort:  service.Sort(r.URL.Query().Get("sort")),
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"spigot", &p.Spigot},
		{"modrinth", &p.Modrinth},
		{"hangar", &p.Hangar},
		{"name", &p.Name},
		{"description", &p.Description},
		{"author", &p.Author},
	}
	for _, b := range bools {
		v, err := common.QueryBool(r, b.name, true)
		if err != nil {
			return p, err
		}
		*b.dst = v
	}

	var err error
	if p.Limit, err = common.QueryInt(r, "limit", 0); err != nil {
		return p, err
	}
	if p.Offset, err = common.QueryInt(r, "offset", 0); err != nil {
		return p, err
	}
	return p, nil
}

// listIngestLogs handles GET /v1/ingest-logs
func (rr *Routes) listIngestLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := common.QueryInt(r, "limit", 50)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	logs, err := rr.logs.List(r.Context(), min(limit, service.MaxPageSize))
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list ingest logs", "error", err)
		common.WriteErrorResponse(w, "failed to list ingest logs", http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []state.Entry{}
	}
	common.WriteJSONResponse(w, IngestLogsResponse{Logs: logs}, http.StatusOK)
}

// latestIngestLog handles GET /v1/ingest-logs/latest?registry=&item=
func (rr *Routes) latestIngestLog(w http.ResponseWriter, r *http.Request) {
	registry, item, err := registryItem(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	successful, err := common.QueryBool(r, "successful", false)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	var entry *state.Entry
	if successful {
		entry, err = rr.logs.LatestSuccessful(r.Context(), registry, item)
	} else {
		entry, err = rr.logs.Latest(r.Context(), registry, item)
	}
	switch {
	case errors.Is(err, state.ErrNoLog):
		common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
	case err != nil:
		slog.ErrorContext(r.Context(), "Failed to read ingest log", "error", err)
		common.WriteErrorResponse(w, "failed to read ingest log", http.StatusInternalServerError)
	default:
		common.WriteJSONResponse(w, entry, http.StatusOK)
	}
}

// registryItem reads the registry and item parameters. The common project
// table is accepted alongside the registries.
func registryItem(r *http.Request) (sources.Registry, sources.ItemKind, error) {
	q := r.URL.Query()
	if sources.Registry(q.Get("registry")) == sources.Common {
		if item := q.Get("item"); item != "" && sources.ItemKind(item) != sources.KindProject {
			return "", "", errors.New("unsupported item kind for registry common")
		}
		return sources.Common, sources.KindProject, nil
	}
	registry, err := sources.ParseRegistry(q.Get("registry"))
	if err != nil {
		return "", "", err
	}
	item, err := sources.ParseItemKind(registry, q.Get("item"))
	if err != nil {
		return "", "", err
	}
	return registry, item, nil
}
