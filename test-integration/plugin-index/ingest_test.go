package integration

import (
	"net/http"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1 "github.com/stacklok/plugin-index/internal/api/v1"
	"github.com/stacklok/plugin-index/internal/sources"
	"github.com/stacklok/plugin-index/internal/sync/state"
	"github.com/stacklok/plugin-index/test-integration/plugin-index/helpers"
)

var (
	day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	luckPermsModrinth = helpers.ModrinthFixture{
		ID: "Vebnzrzj", Slug: "luckperms", Title: "LuckPerms",
		Description: "A permissions plugin", Author: "Luck",
		Downloads: 1000, Follows: 40, GameVersions: []string{"1.20.4", "1.21", "24w14a"},
		VersionID: "v-lp-1", VersionNumber: "5.4.131",
		SourceURL: "https://github.com/LuckPerms/LuckPerms",
		Created:   day0, Modified: day0.Add(48 * time.Hour),
	}
	worldEditModrinth = helpers.ModrinthFixture{
		ID: "1u6JkXh5", Slug: "worldedit", Title: "WorldEdit",
		Description: "In-game map editor", Author: "EngineHub",
		Downloads: 3000, Follows: 90, GameVersions: []string{"1.20.6"},
		VersionID: "v-we-1", VersionNumber: "7.3.4",
		SourceURL: "https://github.com/EngineHub/WorldEdit",
		Created:   day0, Modified: day0.Add(24 * time.Hour),
	}
	chunkyModrinth = helpers.ModrinthFixture{
		ID: "fALzjamp", Slug: "chunky", Title: "Chunky",
		Description: "Pre-generates chunks", Author: "pop4959",
		Downloads: 200, Follows: 10, GameVersions: []string{"1.21"},
		VersionID: "v-ch-1", VersionNumber: "1.4.10",
		Created: day0, Modified: day0.Add(72 * time.Hour),
	}
	luckPermsHangar = helpers.HangarFixture{
		Slug: "LuckPerms", Owner: "Luck", Name: "LuckPerms",
		Description: "Permissions for Paper", Downloads: 500, Stars: 25, Watchers: 5,
		Version: "v5.4.131", Paper: []string{"1.20.4", "1.21.1"},
		SourceURL: "https://github.com/LuckPerms/LuckPerms.git",
		Created:   day0, Updated: day0.Add(12 * time.Hour),
	}
	viaHangar = helpers.HangarFixture{
		Slug: "ViaVersion", Owner: "ViaVersion", Name: "ViaVersion",
		Description: "Newer clients on older servers", Downloads: 800, Stars: 60, Watchers: 9,
		Version: "5.0.3", Paper: []string{"1.8.8", "1.21"},
		Created: day0, Updated: day0.Add(6 * time.Hour),
	}
)

var _ = Describe("Ingest, refresh and search", Label("ingest"), func() {
	var (
		registries   *helpers.FakeRegistries
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		resetTables()
		registries = helpers.NewFakeRegistries()
		registries.SetModrinth(luckPermsModrinth, worldEditModrinth)
		registries.SetHangar(luckPermsHangar, viaHangar)

		var err error
		serverHelper, err = helpers.NewServerTestHelper(ctx, helpers.Config(registries), pool)
		Expect(err).NotTo(HaveOccurred())
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)

		c := serverHelper.Components()
		By("populating Modrinth and Hangar")
		stats, err := c.Populate(ctx, sources.Modrinth, sources.KindProject)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Processed).To(Equal(2))
		stats, err = c.Populate(ctx, sources.Hangar, sources.KindProject)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Processed).To(Equal(2))

		By("refreshing common projects")
		res, err := c.Refresh(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Projects).To(Equal(3))
	})

	AfterEach(func() {
		Expect(serverHelper.StopServer()).To(Succeed())
		registries.Close()
	})

	It("links records that share a source repository", func() {
		var resp v1.SearchResponse
		code, err := serverHelper.GetJSON("/v1/search", url.Values{"q": {"luckperms"}}, &resp)
		Expect(err).NotTo(HaveOccurred())
		Expect(code).To(Equal(http.StatusOK))

		Expect(resp.Results).To(HaveLen(1))
		Expect(resp.FullCount).To(BeEquivalentTo(1))
		lp := resp.Results[0]
		Expect(lp.Modrinth).NotTo(BeNil())
		Expect(lp.Hangar).NotTo(BeNil())
		Expect(lp.Spigot).To(BeNil())
		Expect(lp.Modrinth.VersionName).To(HaveValue(Equal("5.4.131")))
		Expect(lp.Hangar.VersionName).To(HaveValue(Equal("v5.4.131")))
		Expect(lp.SourceRepository).NotTo(BeNil())
		Expect(lp.SourceRepository.Owner).To(Equal("luckperms"))
		Expect(lp.Downloads).To(BeEquivalentTo(1500))
		Expect(lp.LikesAndStars).To(BeEquivalentTo(25))
		Expect(lp.FollowsAndWatchers).To(BeEquivalentTo(45))
		Expect(lp.LatestMinecraftVersion).To(HaveValue(Equal("1.21.1")))
	})

	It("sorts and pages every project", func() {
		var resp v1.SearchResponse
		code, err := serverHelper.GetJSON("/v1/search", url.Values{
			"sort":  {"downloads"},
			"limit": {"2"},
		}, &resp)
		Expect(err).NotTo(HaveOccurred())
		Expect(code).To(Equal(http.StatusOK))
		Expect(resp.FullCount).To(BeEquivalentTo(3))
		Expect(resp.Results).To(HaveLen(2))
		Expect(resp.Results[0].Modrinth.Slug).To(Equal("worldedit"))
		Expect(resp.Results[1].Modrinth.Slug).To(Equal("luckperms"))
	})

	It("excludes registries from search", func() {
		var resp v1.SearchResponse
		code, err := serverHelper.GetJSON("/v1/search", url.Values{"modrinth": {"false"}}, &resp)
		Expect(err).NotTo(HaveOccurred())
		Expect(code).To(Equal(http.StatusOK))
		Expect(resp.Results).To(HaveLen(2))
		for _, r := range resp.Results {
			Expect(r.Modrinth).To(BeNil())
			Expect(r.Hangar).NotTo(BeNil())
		}
	})

	It("updates only what changed since the last run", func() {
		c := serverHelper.Components()
		before := registries.Requests("/modrinth/version/")
		registries.SetModrinth(chunkyModrinth, luckPermsModrinth, worldEditModrinth)

		stats, err := c.Update(ctx, sources.Modrinth, sources.KindProject)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Processed).To(Equal(1))
		Expect(registries.Requests("/modrinth/version/")).To(Equal(before + 1))

		res, err := c.Refresh(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Projects).To(Equal(4))

		var entry state.Entry
		code, err := serverHelper.GetJSON("/v1/ingest-logs/latest", url.Values{
			"registry": {"modrinth"},
			"item":     {"project"},
		}, &entry)
		Expect(err).NotTo(HaveOccurred())
		Expect(code).To(Equal(http.StatusOK))
		Expect(entry.Action).To(Equal(state.ActionUpdate))
		Expect(entry.Success).To(BeTrue())
		Expect(entry.ItemsProcessed).To(Equal(1))
	})

	It("reports the latest refresh", func() {
		var entry state.Entry
		code, err := serverHelper.GetJSON("/v1/ingest-logs/latest", url.Values{"registry": {"common"}}, &entry)
		Expect(err).NotTo(HaveOccurred())
		Expect(code).To(Equal(http.StatusOK))
		Expect(entry.Action).To(Equal(state.ActionRefresh))
		Expect(entry.ItemsProcessed).To(Equal(3))
	})

	It("answers 404 for registries that never ran", func() {
		code, err := serverHelper.GetJSON("/v1/ingest-logs/latest", url.Values{
			"registry": {"spigot"},
			"item":     {"resource"},
		}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(code).To(Equal(http.StatusNotFound))
	})
})
