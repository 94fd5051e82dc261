package sources

import (
	"fmt"

	"github.com/stacklok/plugin-index/internal/httpclient"
	"github.com/stacklok/plugin-index/internal/paginate"
)

// ParseRegistry validates a registry name
func ParseRegistry(s string) (Registry, error) {
	switch r := Registry(s); r {
	case Spigot, Modrinth, Hangar:
		return r, nil
	default:
		return "", fmt.Errorf("unsupported registry: %s", s)
	}
}

// ParseItemKind validates an item kind for a registry
func ParseItemKind(registry Registry, s string) (ItemKind, error) {
	k := ItemKind(s)
	switch {
	case registry == Spigot && (k == KindResource || k == KindAuthor):
		return k, nil
	case (registry == Modrinth || registry == Hangar) && k == KindProject:
		return k, nil
	default:
		return "", fmt.Errorf("unsupported item kind %q for registry %s", s, registry)
	}
}

// NewAdapter creates the adapter for a registry and item kind
func NewAdapter(
	registry Registry, item ItemKind, client httpclient.Client, limiter paginate.Limiter, opts ...Option,
) (Adapter, error) {
	if _, err := ParseItemKind(registry, string(item)); err != nil {
		return nil, err
	}
	switch {
	case registry == Spigot && item == KindResource:
		return NewSpigotResources(client, limiter, opts...), nil
	case registry == Spigot && item == KindAuthor:
		return NewSpigotAuthors(client, limiter, opts...), nil
	case registry == Modrinth:
		return NewModrinthProjects(client, limiter, opts...), nil
	default:
		return NewHangarProjects(client, limiter, opts...), nil
	}
}

// Kinds lists the item kinds of a registry in ingest order
func Kinds(registry Registry) []ItemKind {
	if registry == Spigot {
		return []ItemKind{KindAuthor, KindResource}
	}
	return []ItemKind{KindProject}
}
