package resolve

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/plugin-index/internal/repository"
)

func gh(owner, name string) *repository.Identity {
	return &repository.Identity{Host: "github.com", Owner: owner, Name: name}
}

func ptr[T any](v T) *T { return &v }

// sequentialIDs returns deterministic ids 00000000-...-000000000001 onwards
func sequentialIDs() func() uuid.UUID {
	n := 0
	return func() uuid.UUID {
		n++
		return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
	}
}

// linkSet renders a project without its id
func linkSet(p Project) string {
	s, m, h := "-", "-", "-"
	if p.SpigotID != nil {
		s = fmt.Sprint(*p.SpigotID)
	}
	if p.ModrinthID != nil {
		m = *p.ModrinthID
	}
	if p.HangarSlug != nil {
		h = *p.HangarSlug
	}
	return s + "|" + m + "|" + h
}

func linkSets(ps []Project) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = linkSet(p)
	}
	return out
}

func TestResolveGrouping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		snap Snapshot
		want []string
	}{
		{
			name: "empty",
			want: []string{},
		},
		{
			name: "same identity across all registries",
			snap: Snapshot{
				Spigot:   []SpigotSource{{ID: 10, Identity: gh("alice", "foo")}},
				Modrinth: []ModrinthSource{{ID: "AAA", Identity: gh("alice", "foo")}},
				Hangar:   []HangarSource{{Slug: "Foo", Identity: gh("alice", "foo")}},
			},
			want: []string{"10|AAA|Foo"},
		},
		{
			name: "missing identities never match",
			snap: Snapshot{
				Spigot:   []SpigotSource{{ID: 10}},
				Modrinth: []ModrinthSource{{ID: "AAA"}},
			},
			want: []string{"10|-|-", "-|AAA|-"},
		},
		{
			name: "different identities stay apart",
			snap: Snapshot{
				Spigot:   []SpigotSource{{ID: 10, Identity: gh("alice", "foo")}},
				Modrinth: []ModrinthSource{{ID: "AAA", Identity: gh("alice", "bar")}},
			},
			want: []string{"10|-|-", "-|AAA|-"},
		},
		{
			name: "smallest key of a registry joins the group",
			snap: Snapshot{
				Spigot: []SpigotSource{
					{ID: 30, Identity: gh("alice", "foo")},
					{ID: 9, Identity: gh("alice", "foo")},
				},
				Hangar: []HangarSource{{Slug: "Foo", Identity: gh("alice", "foo")}},
			},
			want: []string{"9|-|Foo", "30|-|-"},
		},
		{
			name: "string keys compare lexically",
			snap: Snapshot{
				Modrinth: []ModrinthSource{
					{ID: "bbb", Identity: gh("alice", "foo")},
					{ID: "aaa", Identity: gh("alice", "foo")},
				},
				Hangar: []HangarSource{{Slug: "Foo", Identity: gh("alice", "foo")}},
			},
			want: []string{"-|aaa|Foo", "-|bbb|-"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Resolve(tt.snap, nil, sequentialIDs())
			assert.Equal(t, tt.want, linkSets(got))
			for _, p := range got {
				assert.NotEqual(t, uuid.Nil, p.ID)
				assert.NotEmpty(t, p.links())
			}
		})
	}
}

func TestResolveIsStable(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		Spigot: []SpigotSource{
			{ID: 1, Identity: gh("alice", "foo")},
			{ID: 2},
		},
		Modrinth: []ModrinthSource{{ID: "AAA", Identity: gh("alice", "foo")}},
		Hangar:   []HangarSource{{Slug: "Bar", Identity: gh("bob", "bar")}},
	}

	first := Resolve(snap, nil, sequentialIDs())
	second := Resolve(snap, first, func() uuid.UUID {
		t.Fatal("no new ids expected")
		return uuid.Nil
	})
	require.Equal(t, first, second)
}

func TestResolveCarriesIDs(t *testing.T) {
	t.Parallel()

	oldA := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000000")
	oldB := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000000")

	tests := []struct {
		name     string
		snap     Snapshot
		previous []Project
		want     map[string]uuid.UUID
	}{
		{
			name: "split keeps the id on the larger half",
			snap: Snapshot{
				Spigot:   []SpigotSource{{ID: 1, Identity: gh("alice", "foo")}},
				Modrinth: []ModrinthSource{{ID: "AAA", Identity: gh("alice", "moved")}},
				Hangar:   []HangarSource{{Slug: "Foo", Identity: gh("alice", "foo")}},
			},
			previous: []Project{{ID: oldA, SpigotID: ptr[int32](1), ModrinthID: ptr("AAA"), HangarSlug: ptr("Foo")}},
			want: map[string]uuid.UUID{
				"1|-|Foo": oldA,
				"-|AAA|-": uuid.MustParse("00000000-0000-0000-0000-000000000001"),
			},
		},
		{
			name: "merge keeps the id with most overlap",
			snap: Snapshot{
				Spigot:   []SpigotSource{{ID: 1, Identity: gh("alice", "foo")}},
				Modrinth: []ModrinthSource{{ID: "AAA", Identity: gh("alice", "foo")}},
				Hangar:   []HangarSource{{Slug: "Foo", Identity: gh("alice", "foo")}},
			},
			previous: []Project{
				{ID: oldA, HangarSlug: ptr("Foo")},
				{ID: oldB, SpigotID: ptr[int32](1), ModrinthID: ptr("AAA")},
			},
			want: map[string]uuid.UUID{"1|AAA|Foo": oldB},
		},
		{
			name: "ties go to the earlier previous row",
			snap: Snapshot{
				Spigot:   []SpigotSource{{ID: 1, Identity: gh("alice", "foo")}},
				Modrinth: []ModrinthSource{{ID: "AAA", Identity: gh("alice", "foo")}},
			},
			previous: []Project{
				{ID: oldA, SpigotID: ptr[int32](1)},
				{ID: oldB, ModrinthID: ptr("AAA")},
			},
			want: map[string]uuid.UUID{"1|AAA|-": oldA},
		},
		{
			name: "an id is claimed once",
			snap: Snapshot{
				Spigot:   []SpigotSource{{ID: 1}},
				Modrinth: []ModrinthSource{{ID: "AAA"}},
			},
			previous: []Project{{ID: oldA, SpigotID: ptr[int32](1), ModrinthID: ptr("AAA")}},
			want: map[string]uuid.UUID{
				"1|-|-":   oldA,
				"-|AAA|-": uuid.MustParse("00000000-0000-0000-0000-000000000001"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Resolve(tt.snap, tt.previous, sequentialIDs())
			ids := make(map[string]uuid.UUID, len(got))
			for _, p := range got {
				ids[linkSet(p)] = p.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
