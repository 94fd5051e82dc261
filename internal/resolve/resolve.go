// Package resolve groups per-source records that share a source repository
// into common projects.
package resolve

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/google/uuid"

	"github.com/stacklok/plugin-index/internal/repository"
)

// SpigotSource is the identity projection of a Spigot resource
type SpigotSource struct {
	ID       int32
	Identity *repository.Identity
}

// ModrinthSource is the identity projection of a Modrinth project
type ModrinthSource struct {
	ID       string
	Identity *repository.Identity
}

// HangarSource is the identity projection of a Hangar project
type HangarSource struct {
	Slug     string
	Identity *repository.Identity
}

// Snapshot is every stored record's key and identity
type Snapshot struct {
	Spigot   []SpigotSource
	Modrinth []ModrinthSource
	Hangar   []HangarSource
}

// Project is one common project row. At least one link is set.
type Project struct {
	ID         uuid.UUID
	SpigotID   *int32
	ModrinthID *string
	HangarSlug *string
}

// links renders the set links as comparable keys
func (p Project) links() []string {
	out := make([]string, 0, 3)
	if p.SpigotID != nil {
		out = append(out, "s:"+strconv.FormatInt(int64(*p.SpigotID), 10))
	}
	if p.ModrinthID != nil {
		out = append(out, "m:"+*p.ModrinthID)
	}
	if p.HangarSlug != nil {
		out = append(out, "h:"+*p.HangarSlug)
	}
	return out
}

// Resolve computes the next set of common projects.
//
// Records with equal identities form one project, at most one record per
// registry. When several records of one registry share an identity the one
// with the smallest key joins the group and the rest become single source
// projects. Records without an identity are always single source.
//
// Ids are carried over from previous. Pairs of group and previous project are
// matched greedily by shared links, most first, ties going to the earlier
// group. Groups left without a match get newID().
func Resolve(snap Snapshot, previous []Project, newID func() uuid.UUID) []Project {
	if newID == nil {
		newID = uuid.New
	}

	var groups []*Project
	byIdentity := make(map[repository.Identity]*Project)

	// join returns the group the record belongs to, creating it if needed.
	// taken reports whether the group already holds a record of this registry.
	join := func(id *repository.Identity, taken func(*Project) bool) *Project {
		if id != nil {
			if g, ok := byIdentity[*id]; ok && !taken(g) {
				return g
			} else if !ok {
				g = &Project{}
				byIdentity[*id] = g
				groups = append(groups, g)
				return g
			}
		}
		g := &Project{}
		groups = append(groups, g)
		return g
	}

	spigot := slices.SortedFunc(slices.Values(snap.Spigot), func(a, b SpigotSource) int {
		return cmp.Compare(a.ID, b.ID)
	})
	for _, s := range spigot {
		g := join(s.Identity, func(p *Project) bool { return p.SpigotID != nil })
		g.SpigotID = &s.ID
	}

	modrinth := slices.SortedFunc(slices.Values(snap.Modrinth), func(a, b ModrinthSource) int {
		return cmp.Compare(a.ID, b.ID)
	})
	for _, m := range modrinth {
		g := join(m.Identity, func(p *Project) bool { return p.ModrinthID != nil })
		g.ModrinthID = &m.ID
	}

	hangar := slices.SortedFunc(slices.Values(snap.Hangar), func(a, b HangarSource) int {
		return cmp.Compare(a.Slug, b.Slug)
	})
	for _, h := range hangar {
		g := join(h.Identity, func(p *Project) bool { return p.HangarSlug != nil })
		g.HangarSlug = &h.Slug
	}

	assignIDs(groups, previous, newID)

	out := make([]Project, len(groups))
	for i, g := range groups {
		out[i] = *g
	}
	return out
}

func assignIDs(groups []*Project, previous []Project, newID func() uuid.UUID) {
	owner := make(map[string]int, len(previous)*2)
	for i, p := range previous {
		for _, l := range p.links() {
			owner[l] = i
		}
	}

	type candidate struct {
		group, prev, overlap int
	}
	var candidates []candidate
	for gi, g := range groups {
		overlap := make(map[int]int)
		for _, l := range g.links() {
			if pi, ok := owner[l]; ok {
				overlap[pi]++
			}
		}
		for pi, n := range overlap {
			candidates = append(candidates, candidate{group: gi, prev: pi, overlap: n})
		}
	}
	slices.SortFunc(candidates, func(a, b candidate) int {
		return cmp.Or(
			cmp.Compare(b.overlap, a.overlap),
			cmp.Compare(a.group, b.group),
			cmp.Compare(a.prev, b.prev),
		)
	})

	assigned := make([]bool, len(groups))
	claimed := make([]bool, len(previous))
	for _, c := range candidates {
		if assigned[c.group] || claimed[c.prev] {
			continue
		}
		groups[c.group].ID = previous[c.prev].ID
		assigned[c.group], claimed[c.prev] = true, true
	}
	for i, g := range groups {
		if !assigned[i] {
			g.ID = newID()
		}
	}
}
