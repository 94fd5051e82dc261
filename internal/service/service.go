// Package service provides search over the common projects
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/plugin-index/internal/repository"
)

var (
	// ErrInvalidSort is returned when a sort field is unknown
	ErrInvalidSort = errors.New("invalid sort field")
	// ErrNoRegistries is returned when a search excludes every registry
	ErrNoRegistries = errors.New("at least one registry must be included")
	// ErrNoFields is returned when a non-empty query matches no field
	ErrNoFields = errors.New("at least one of name, description or author must be searched")
	// ErrInvalidPagination is returned for a negative limit or offset
	ErrInvalidPagination = errors.New("limit and offset must not be negative")
)

const (
	// DefaultPageSize is used when a search does not set a limit
	DefaultPageSize = 20
	// MaxPageSize caps the number of results per search
	MaxPageSize = 100
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go SearchService

// SearchService serves ranked search over common projects
type SearchService interface {
	// CheckReadiness checks if the service is ready to serve requests
	CheckReadiness(ctx context.Context) error

	// Search returns one page of matching common projects
	Search(ctx context.Context, params SearchParams) ([]Result, error)
}

// Sort is the field results are ordered by, descending
type Sort string

// Sort fields
const (
	SortDateCreated            Sort = "date_created"
	SortDateUpdated            Sort = "date_updated"
	SortLatestMinecraftVersion Sort = "latest_minecraft_version"
	SortDownloads              Sort = "downloads"
	SortLikesAndStars          Sort = "likes_and_stars"
	SortFollowsAndWatchers     Sort = "follows_and_watchers"
)

// ParseSort validates a sort field name
func ParseSort(s string) (Sort, error) {
	switch v := Sort(s); v {
	case SortDateCreated, SortDateUpdated, SortLatestMinecraftVersion,
		SortDownloads, SortLikesAndStars, SortFollowsAndWatchers:
		return v, nil
	}
	return "", ErrInvalidSort
}

// SearchParams selects and orders common projects.
// Query is matched as a case-insensitive substring.
type SearchParams struct {
	Query string

	Spigot   bool
	Modrinth bool
	Hangar   bool

	Name        bool
	Description bool
	Author      bool

	Sort   Sort
	Limit  int
	Offset int
}

// SpigotProject is the Spigot side of a result
type SpigotProject struct {
	ID                     int32   `json:"id"`
	Name                   *string `json:"name,omitempty"`
	Description            string  `json:"description"`
	Author                 string  `json:"author"`
	Slug                   string  `json:"slug"`
	Downloads              int32   `json:"downloads"`
	Likes                  int32   `json:"likes"`
	LatestMinecraftVersion *string `json:"latest_minecraft_version,omitempty"`
	VersionName            *string `json:"version_name,omitempty"`
	Premium                bool    `json:"premium"`
	Abandoned              bool    `json:"abandoned"`
	IconData               string  `json:"icon_data,omitempty"`
}

// ModrinthProject is the Modrinth side of a result
type ModrinthProject struct {
	ID                     string  `json:"id"`
	Slug                   string  `json:"slug"`
	Name                   string  `json:"name"`
	Description            string  `json:"description"`
	Author                 string  `json:"author"`
	Downloads              int32   `json:"downloads"`
	Follows                int32   `json:"follows"`
	LatestMinecraftVersion *string `json:"latest_minecraft_version,omitempty"`
	VersionName            *string `json:"version_name,omitempty"`
	IconURL                string  `json:"icon_url,omitempty"`
	Archived               bool    `json:"archived"`
}

// HangarProject is the Hangar side of a result
type HangarProject struct {
	Slug                   string  `json:"slug"`
	Name                   string  `json:"name"`
	Description            string  `json:"description"`
	Author                 string  `json:"author"`
	Downloads              int32   `json:"downloads"`
	Stars                  int32   `json:"stars"`
	Watchers               int32   `json:"watchers"`
	LatestMinecraftVersion *string `json:"latest_minecraft_version,omitempty"`
	VersionName            *string `json:"version_name,omitempty"`
	AvatarURL              string  `json:"avatar_url,omitempty"`
}

// Result is one common project with the included registries' records and
// the aggregates computed over them.
type Result struct {
	ID                     uuid.UUID            `json:"id"`
	Spigot                 *SpigotProject       `json:"spigot,omitempty"`
	Modrinth               *ModrinthProject     `json:"modrinth,omitempty"`
	Hangar                 *HangarProject       `json:"hangar,omitempty"`
	SourceRepository       *repository.Identity `json:"source_repository,omitempty"`
	DateCreated            time.Time            `json:"date_created"`
	DateUpdated            time.Time            `json:"date_updated"`
	LatestMinecraftVersion *string              `json:"latest_minecraft_version,omitempty"`
	Downloads              int64                `json:"downloads"`
	LikesAndStars          int64                `json:"likes_and_stars"`
	FollowsAndWatchers     int64                `json:"follows_and_watchers"`
	FullCount              int64                `json:"full_count"`
}
