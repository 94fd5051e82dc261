package sources

import (
	"context"
	"iter"
	"time"

	"github.com/stacklok/plugin-index/internal/repository"
)

// Registry names a plugin registry
type Registry string

// Known registries. Common names the cross-registry project table.
const (
	Spigot   Registry = "spigot"
	Modrinth Registry = "modrinth"
	Hangar   Registry = "hangar"
	Common   Registry = "common"
)

// ItemKind names the kind of listing an adapter crawls
type ItemKind string

// Item kinds
const (
	KindResource ItemKind = "resource"
	KindAuthor   ItemKind = "author"
	KindProject  ItemKind = "project"
)

// Item is one raw listing entry
type Item interface {
	// Key is the registry primary key rendered as a string.
	Key() string
	// Watermark orders items in an update crawl. It is the update time in
	// unix milliseconds for projects and resources, and the id for Spigot authors.
	Watermark() int64
}

// Record is a converted per-source record ready to persist
type Record interface {
	Key() string
}

// Adapter is the registry specific half of an ingest run
type Adapter interface {
	Registry() Registry
	Item() ItemKind
	// Populate crawls the whole listing with read-ahead.
	Populate(ctx context.Context) iter.Seq2[[]Item, error]
	// Update crawls the listing newest first, one page at a time.
	Update(ctx context.Context) iter.Seq2[[]Item, error]
	// Convert turns an item into a record, performing the secondary latest
	// version lookup when the registry needs one. Errors are item scoped.
	Convert(ctx context.Context, item Item) (Record, error)
}

// VersionCache remembers the result of latest version lookups.
type VersionCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

type nopVersionCache struct{}

func (nopVersionCache) Get(context.Context, string) (string, bool) { return "", false }
func (nopVersionCache) Set(context.Context, string, string)        {}

// SpigotResource is a Spigot resource as stored
type SpigotResource struct {
	ID                     int32
	Name                   string
	ParsedName             *string
	Description            string
	Slug                   string
	AuthorID               int32
	DateCreated            time.Time
	DateUpdated            time.Time
	Downloads              int32
	Likes                  int32
	Premium                bool
	Abandoned              bool
	IconURL                string
	IconData               string
	LatestMinecraftVersion *string
	SourceURL              *string
	SourceRepository       *repository.Identity
	VersionID              int32
	VersionName            *string
}

// SpigotAuthor is a Spigot author as stored
type SpigotAuthor struct {
	ID   int32
	Name string
}

// ModrinthProject is a Modrinth project as stored
type ModrinthProject struct {
	ID                     string
	Slug                   string
	Title                  string
	Description            string
	Author                 string
	DateCreated            time.Time
	DateModified           time.Time
	Downloads              int32
	Follows                int32
	VersionID              string
	VersionName            *string
	IconURL                string
	MonetizationStatus     string
	Archived               bool
	LatestMinecraftVersion *string
	SourceURL              *string
	SourceRepository       *repository.Identity
}

// HangarProject is a Hangar project as stored
type HangarProject struct {
	Slug                   string
	Author                 string
	Name                   string
	Description            string
	DateCreated            time.Time
	DateUpdated            time.Time
	Downloads              int32
	Stars                  int32
	Watchers               int32
	AvatarURL              string
	VersionName            *string
	LatestMinecraftVersion *string
	SourceURL              *string
	SourceRepository       *repository.Identity
}

// Key implements Record
func (r *SpigotResource) Key() string { return itoa(r.ID) }

// Key implements Record
func (a *SpigotAuthor) Key() string { return itoa(a.ID) }

// Key implements Record
func (p *ModrinthProject) Key() string { return p.ID }

// Key implements Record
func (p *HangarProject) Key() string { return p.Slug }
