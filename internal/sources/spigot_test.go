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
	"github.com/stacklok/plugin-index/internal/repository"
)

func spigotResourceJSON(id int) string {
	return fmt.Sprintf(`{
		"id": %d,
		"name": "[1.8-1.20] Plugin%c v1.0",
		"tag": "tag %d",
		"releaseDate": 1600000000,
		"updateDate": %d,
		"downloads": 10,
		"likes": 3,
		"testedVersions": ["1.19", "1.20"],
		"icon": {"url": "data/icon.png", "data": "aWNvbg=="},
		"sourceCodeLink": "https://github.com/alice/plugin%d",
		"author": {"id": 7},
		"version": {"id": %d},
		"file": {"type": ".jar", "url": "resources/plugin-%d.%d/download?version=%d"}
	}`, id, 'A'+rune(id), id, 1700000000-id, id, 100+id, id, id, 100+id)
}

var _ = Describe("SpigotResources", func() {
	var (
		server    *httptest.Server
		mu        sync.Mutex
		sorts     []string
		pages     []string
		lookups   int
		totalPage int
	)

	BeforeEach(func() {
		sorts, pages, lookups, totalPage = nil, nil, 0, 3
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			switch {
			case r.URL.Path == "/resources":
				Expect(r.URL.Query().Get("fields")).To(ContainSubstring("sourceCodeLink"))
				sorts = append(sorts, r.URL.Query().Get("sort"))
				page, _ := strconv.Atoi(r.URL.Query().Get("page"))
				pages = append(pages, r.URL.Query().Get("page"))
				w.Header().Set("X-Page-Index", strconv.Itoa(page))
				w.Header().Set("X-Page-Count", strconv.Itoa(totalPage))
				if page > totalPage {
					_, _ = w.Write([]byte(`[]`))
					return
				}
				first := (page-1)*2 + 1
				_, _ = fmt.Fprintf(w, "[%s,%s]", spigotResourceJSON(first), spigotResourceJSON(first+1))
			case strings.HasSuffix(r.URL.Path, "/versions/latest"):
				lookups++
				id := strings.Split(r.URL.Path, "/")[2]
				switch id {
				case "404":
					w.WriteHeader(http.StatusNotFound)
				case "500":
					w.WriteHeader(http.StatusInternalServerError)
				default:
					_, _ = fmt.Fprintf(w, `{"id": 1, "name": "v%s.0"}`, id)
				}
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newAdapter := func(opts ...Option) *SpigotResources {
		opts = append([]Option{WithBaseURL(server.URL), WithPageSize(2), WithReadAhead(2)}, opts...)
		return NewSpigotResources(httpclient.NewDefaultClient(5*time.Second), unlimited(), opts...)
	}

	Describe("Populate", func() {
		It("should walk every page in order sorted by id", func() {
			items, err := collectItems(newAdapter().Populate(context.Background()))
			Expect(err).NotTo(HaveOccurred())

			keys := make([]string, len(items))
			for i, it := range items {
				keys[i] = it.Key()
			}
			Expect(keys).To(Equal([]string{"1", "2", "3", "4", "5", "6"}))
			Expect(sorts).To(HaveEach("+id"))
			Expect(pages).To(ContainElements("1", "2", "3"))
		})

		It("should fail on missing pagination headers", func() {
			bare := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`[]`))
			}))
			defer bare.Close()

			adapter := NewSpigotResources(httpclient.NewDefaultClient(5*time.Second), unlimited(), WithBaseURL(bare.URL))
			_, err := collectItems(adapter.Populate(context.Background()))
			Expect(err).To(MatchError(ErrMalformedPagination))
		})

		It("should fail on a non-2xx page", func() {
			broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer broken.Close()

			adapter := NewSpigotResources(httpclient.NewDefaultClient(5*time.Second), unlimited(), WithBaseURL(broken.URL))
			_, err := collectItems(adapter.Populate(context.Background()))
			Expect(httpclient.StatusCode(err)).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("Update", func() {
		It("should request most recently updated first, one page at a time", func() {
			items, err := collectItems(newAdapter().Update(context.Background()))
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(6))
			Expect(sorts).To(HaveEach("-updateDate"))
			Expect(pages).To(Equal([]string{"1", "2", "3"}))
		})
	})

	Describe("Convert", func() {
		It("should convert a listed resource and look up its version", func() {
			adapter := newAdapter()
			items, err := collectItems(adapter.Update(context.Background()))
			Expect(err).NotTo(HaveOccurred())

			rec, err := adapter.Convert(context.Background(), items[0])
			Expect(err).NotTo(HaveOccurred())

			res := rec.(*SpigotResource)
			Expect(res.ID).To(Equal(int32(1)))
			Expect(res.ParsedName).To(HaveValue(Equal("PluginB")))
			Expect(res.Slug).To(Equal("plugin-1"))
			Expect(res.AuthorID).To(Equal(int32(7)))
			Expect(res.VersionID).To(Equal(int32(101)))
			Expect(res.VersionName).To(HaveValue(Equal("v1.0")))
			Expect(res.LatestMinecraftVersion).To(HaveValue(Equal("1.20")))
			Expect(res.SourceRepository).To(Equal(&repository.Identity{Host: "github.com", Owner: "alice", Name: "plugin1"}))
			Expect(res.DateUpdated).To(Equal(time.Unix(1699999999, 0).UTC()))
		})

		It("should consult the version cache before looking up", func() {
			cache := newMemoryCache()
			cache.Set(context.Background(), "spigot:101", "cached")
			adapter := newAdapter(WithVersionCache(cache))

			items, err := collectItems(adapter.Update(context.Background()))
			Expect(err).NotTo(HaveOccurred())

			rec, err := adapter.Convert(context.Background(), items[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.(*SpigotResource).VersionName).To(HaveValue(Equal("cached")))
			Expect(lookups).To(BeZero())

			_, err = adapter.Convert(context.Background(), items[1])
			Expect(err).NotTo(HaveOccurred())
			Expect(lookups).To(Equal(1))
			Expect(cache.m).To(HaveKeyWithValue("spigot:102", "v2.0"))
		})
	})

	Describe("FetchLatestVersion", func() {
		It("should return the version name", func() {
			name, err := newAdapter().FetchLatestVersion(context.Background(), 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("v42.0"))
		})

		It("should report not found", func() {
			_, err := newAdapter().FetchLatestVersion(context.Background(), 404)
			Expect(err).To(MatchError(ErrLatestVersionNotFound))
			Expect(KindOf(err)).To(Equal(KindLatestVersionNotFound))
		})

		It("should report unexpected status codes", func() {
			_, err := newAdapter().FetchLatestVersion(context.Background(), 500)
			Expect(err).To(MatchError(ErrUnexpectedStatusCode))
			Expect(KindOf(err)).To(Equal(KindUnexpectedStatusCode))
		})
	})
})
