package sources

import (
	"context"
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

var _ = Describe("HangarProjects", func() {
	const total = 3

	var (
		server   *httptest.Server
		mu       sync.Mutex
		sorts    []string
		lookups  int
		versions string
	)

	BeforeEach(func() {
		sorts, lookups = nil, 0
		versions = `{"pagination": {"limit": 1, "offset": 0, "count": 4}, "result": [
			{"name": "2.0.0", "platformDependencies": {
				"PAPER": ["1.21.2", "1.21.3", "1.8", "1.9"],
				"VELOCITY": ["3.4"]
			}}
		]}`
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			q := r.URL.Query()
			switch {
			case r.URL.Path == "/projects":
				sorts = append(sorts, q.Get("sort"))
				offset, _ := strconv.Atoi(q.Get("offset"))
				limit, _ := strconv.Atoi(q.Get("limit"))
				result := []string{}
				for i := offset; i < offset+limit && i < total; i++ {
					result = append(result, fmt.Sprintf(`{"name": "Project%d",
						"namespace": {"owner": "alice", "slug": "project-%d"},
						"stats": {"downloads": 10, "stars": 2, "watchers": 1},
						"createdAt": "2023-01-01T00:00:00Z", "lastUpdated": "2024-01-01T00:00:00Z",
						"avatarUrl": "https://hangar.example/avatar.png", "description": "d",
						"settings": {"links": [{"links": [{"name": "Source", "url": "https://github.com/alice/project-%d"}]}]}}`,
						i, i, i))
				}
				_, _ = fmt.Fprintf(w, `{"pagination": {"limit": %d, "offset": %d, "count": %d}, "result": [%s]}`,
					limit, offset, total, strings.Join(result, ","))
			case strings.HasSuffix(r.URL.Path, "/versions"):
				lookups++
				Expect(q.Get("limit")).To(Equal("1"))
				Expect(q.Get("offset")).To(Equal("0"))
				_, _ = w.Write([]byte(versions))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newAdapter := func(opts ...Option) *HangarProjects {
		opts = append([]Option{WithBaseURL(server.URL), WithPageSize(2)}, opts...)
		return NewHangarProjects(httpclient.NewDefaultClient(5*time.Second), unlimited(), opts...)
	}

	It("should populate every project", func() {
		items, err := collectItems(newAdapter().Populate(context.Background()))
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(total))
		Expect(items[2].Key()).To(Equal("project-2"))
		Expect(sorts).To(HaveEach("newest"))
	})

	It("should convert using the newest version and numeric ordering", func() {
		cache := newMemoryCache()
		adapter := newAdapter(WithVersionCache(cache))
		items, err := collectItems(adapter.Update(context.Background()))
		Expect(err).NotTo(HaveOccurred())
		Expect(sorts).To(Equal([]string{"updated", "updated"}))

		rec, err := adapter.Convert(context.Background(), items[0])
		Expect(err).NotTo(HaveOccurred())
		project := rec.(*HangarProject)
		Expect(project.Slug).To(Equal("project-0"))
		Expect(project.Author).To(Equal("alice"))
		Expect(project.Stars).To(Equal(int32(2)))
		Expect(project.VersionName).To(HaveValue(Equal("2.0.0")))
		Expect(project.LatestMinecraftVersion).To(HaveValue(Equal("1.21.3")))
		Expect(project.SourceRepository.Name).To(Equal("project-0"))

		// A second conversion of the same unchanged project hits the cache.
		_, err = adapter.Convert(context.Background(), items[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(lookups).To(Equal(1))
	})

	It("should report an empty version list as not found", func() {
		versions = `{"pagination": {"limit": 1, "offset": 0, "count": 0}, "result": []}`
		_, err := newAdapter().FetchLatestVersion(context.Background(), "project-0")
		Expect(err).To(MatchError(ErrLatestVersionNotFound))
	})

	It("should leave the Minecraft version unset without Paper releases", func() {
		versions = `{"result": [{"name": "1.0", "platformDependencies": {"VELOCITY": ["3.3"]}}]}`
		v, err := newAdapter().FetchLatestVersion(context.Background(), "project-0")
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Name).To(Equal("1.0"))
		Expect(v.MinecraftVersion).To(BeNil())
	})
})
