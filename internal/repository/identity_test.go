package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		expected *Identity
	}{
		{
			name:     "plain github url",
			raw:      "https://github.com/alice/foo",
			expected: &Identity{Host: "github.com", Owner: "alice", Name: "foo"},
		},
		{
			name:     "mixed case and www",
			raw:      "https://www.GitHub.com/Alice/Foo",
			expected: &Identity{Host: "github.com", Owner: "alice", Name: "foo"},
		},
		{
			name:     "deep link into tree",
			raw:      "https://github.com/alice/foo/tree/main/src",
			expected: &Identity{Host: "github.com", Owner: "alice", Name: "foo"},
		},
		{
			name:     "dot git suffix",
			raw:      "https://github.com/alice/foo.git",
			expected: &Identity{Host: "github.com", Owner: "alice", Name: "foo"},
		},
		{
			name:     "scp style",
			raw:      "git@github.com:alice/foo.git",
			expected: &Identity{Host: "github.com", Owner: "alice", Name: "foo"},
		},
		{
			name:     "git plus prefix",
			raw:      "git+https://gitlab.com/alice/foo.git",
			expected: &Identity{Host: "gitlab.com", Owner: "alice", Name: "foo"},
		},
		{
			name:     "missing scheme",
			raw:      "github.com/alice/foo",
			expected: &Identity{Host: "github.com", Owner: "alice", Name: "foo"},
		},
		{
			name:     "trailing slash and query",
			raw:      "https://github.com/alice/foo/?tab=readme",
			expected: &Identity{Host: "github.com", Owner: "alice", Name: "foo"},
		},
		{
			name:     "sourcehut tilde owner",
			raw:      "https://git.sr.ht/~alice/foo",
			expected: &Identity{Host: "git.sr.ht", Owner: "alice", Name: "foo"},
		},
		{
			name:     "codeberg",
			raw:      "https://codeberg.org/alice/foo",
			expected: &Identity{Host: "codeberg.org", Owner: "alice", Name: "foo"},
		},
		{name: "empty", raw: "", expected: nil},
		{name: "whitespace", raw: "   ", expected: nil},
		{name: "owner only", raw: "https://github.com/alice", expected: nil},
		{name: "unknown host", raw: "https://example.com/alice/foo", expected: nil},
		{name: "sponsors page", raw: "https://github.com/sponsors/alice", expected: nil},
		{name: "not a url", raw: "://nope", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Extract(tt.raw)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.expected, *got)
		})
	}
}

func TestIdentityString(t *testing.T) {
	t.Parallel()

	id := Identity{Host: "github.com", Owner: "alice", Name: "foo"}
	assert.Equal(t, "github.com/alice/foo", id.String())
}
