package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/plugin-index/internal/httpclient"
)

var _ = Describe("ModrinthProjects", func() {
	const total = 5

	var (
		server      *httptest.Server
		mu          sync.Mutex
		indexes     []string
		failEnrich  bool
		projectsIDs [][]string
	)

	BeforeEach(func() {
		indexes, failEnrich, projectsIDs = nil, false, nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			q := r.URL.Query()
			switch {
			case r.URL.Path == "/search":
				Expect(q.Get("facets")).To(Equal(`[["project_type:plugin"]]`))
				indexes = append(indexes, q.Get("index"))
				offset, _ := strconv.Atoi(q.Get("offset"))
				limit, _ := strconv.Atoi(q.Get("limit"))
				hits := []string{}
				for i := offset; i < offset+limit && i < total; i++ {
					hits = append(hits, fmt.Sprintf(`{"project_id": "p%d", "slug": "s%d", "title": "Project %d",
						"author": "alice", "versions": ["1.20", "1.21"], "downloads": %d, "follows": 1,
						"date_created": "2023-01-01T00:00:00Z", "date_modified": "2024-01-0%dT00:00:00Z",
						"latest_version": "v%d"}`, i, i, i, i*10, 9-i, i))
				}
				_, _ = fmt.Fprintf(w, `{"hits": [%s], "offset": %d, "limit": %d, "total_hits": %d}`,
					strings.Join(hits, ","), offset, limit, total)
			case r.URL.Path == "/projects":
				if failEnrich {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				var ids []string
				Expect(json.Unmarshal([]byte(q.Get("ids")), &ids)).To(Succeed())
				projectsIDs = append(projectsIDs, ids)
				out := make([]string, 0, len(ids))
				for _, id := range ids {
					status := "approved"
					if id == "p1" {
						status = "archived"
					}
					out = append(out, fmt.Sprintf(`{"id": %q, "source_url": "https://github.com/alice/%s", "status": %q}`,
						id, id, status))
				}
				_, _ = fmt.Fprintf(w, "[%s]", strings.Join(out, ","))
			case strings.HasPrefix(r.URL.Path, "/version/"):
				id := strings.TrimPrefix(r.URL.Path, "/version/")
				if id == "missing" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				_, _ = fmt.Fprintf(w, `{"id": %q, "version_number": "%s-release"}`, id, id)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newAdapter := func() *ModrinthProjects {
		return NewModrinthProjects(httpclient.NewDefaultClient(5*time.Second), unlimited(),
			WithBaseURL(server.URL), WithPageSize(2), WithReadAhead(3))
	}

	It("should populate every hit sorted by newest", func() {
		items, err := collectItems(newAdapter().Populate(context.Background()))
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(total))
		for i, it := range items {
			Expect(it.Key()).To(Equal(fmt.Sprintf("p%d", i)))
		}
		Expect(indexes).To(HaveEach("newest"))
	})

	It("should update sorted by last update, enriching each page", func() {
		adapter := newAdapter()
		items, err := collectItems(adapter.Update(context.Background()))
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(total))
		Expect(indexes).To(Equal([]string{"updated", "updated", "updated"}))
		Expect(projectsIDs).To(Equal([][]string{{"p0", "p1"}, {"p2", "p3"}, {"p4"}}))

		rec, err := adapter.Convert(context.Background(), items[1])
		Expect(err).NotTo(HaveOccurred())
		project := rec.(*ModrinthProject)
		Expect(project.Archived).To(BeTrue())
		Expect(project.SourceURL).To(HaveValue(Equal("https://github.com/alice/p1")))
		Expect(project.SourceRepository.Name).To(Equal("p1"))
		Expect(project.VersionName).To(HaveValue(Equal("v1-release")))
		Expect(project.LatestMinecraftVersion).To(HaveValue(Equal("1.21")))
	})

	It("should fail the crawl when enrichment fails", func() {
		failEnrich = true
		_, err := collectItems(newAdapter().Update(context.Background()))
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("enrich"))
	})

	It("should report a missing version as an item error", func() {
		_, err := newAdapter().FetchLatestVersion(context.Background(), "p0", "missing")
		Expect(err).To(MatchError(ErrLatestVersionNotFound))
		Expect(KindOf(err)).To(Equal(KindLatestVersionNotFound))
	})
})
