// Package repository derives the cross-registry identity of a plugin from the
// source code URL its authors declare.
package repository

import (
	"fmt"
	"net/url"
	"strings"
)

// Identity is the (host, owner, name) triple that identifies a source repository.
// All fields are lower-cased so that equal repositories compare equal.
type Identity struct {
	Host  string `json:"host"`
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// String renders the identity as host/owner/name.
func (i Identity) String() string {
	return fmt.Sprintf("%s/%s/%s", i.Host, i.Owner, i.Name)
}

// knownHosts lists the forges whose URL layout is /owner/name.
var knownHosts = map[string]struct{}{
	"github.com":    {},
	"gitlab.com":    {},
	"bitbucket.org": {},
	"codeberg.org":  {},
	"gitea.com":     {},
	"git.sr.ht":     {},
}

// reservedOwners are first path segments that are site pages, not accounts.
var reservedOwners = map[string]struct{}{
	"sponsors": {},
	"orgs":     {},
	"users":    {},
	"settings": {},
	"topics":   {},
	"explore":  {},
}

var scpReplacer = strings.NewReplacer(
	"git@github.com:", "https://github.com/",
	"git@gitlab.com:", "https://gitlab.com/",
	"git@bitbucket.org:", "https://bitbucket.org/",
	"git@codeberg.org:", "https://codeberg.org/",
)

// Extract parses a declared source code URL into an Identity. It returns nil when
// the URL is empty, unparsable, on an unknown host, or lacks an owner or name.
func Extract(raw string) *Identity {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	s = strings.TrimPrefix(s, "git+")
	s = scpReplacer.Replace(s)
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if _, ok := knownHosts[host]; !ok {
		return nil
	}

	segments := make([]string, 0, 2)
	for _, seg := range strings.Split(u.Path, "/") {
		if seg == "" {
			continue
		}
		segments = append(segments, seg)
		if len(segments) == 2 {
			break
		}
	}
	if len(segments) < 2 {
		return nil
	}

	owner := strings.ToLower(strings.TrimPrefix(segments[0], "~"))
	name := strings.ToLower(strings.TrimSuffix(segments[1], ".git"))
	if _, reserved := reservedOwners[owner]; reserved {
		return nil
	}
	if owner == "" || name == "" || name == "-" {
		return nil
	}

	return &Identity{Host: host, Owner: owner, Name: name}
}
