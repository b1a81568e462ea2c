package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Compile("/users/([a-z")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid path pattern")

	assert.Panics(t, func() { MustCompile("(") })
}

func TestPattern_Match(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		pattern      string
		path         string
		wantMatch    bool
		wantCaptures []string
	}{
		{
			name:         "single capture",
			pattern:      `/users/(\w+)`,
			path:         "/users/Jimmy",
			wantMatch:    true,
			wantCaptures: []string{"Jimmy"},
		},
		{
			name:      "extra segment rejected",
			pattern:   `/api/test/(\w+)`,
			path:      "/api/test/123/456",
			wantMatch: false,
		},
		{
			name:      "prefix of path rejected",
			pattern:   `/users`,
			path:      "/users/Jimmy",
			wantMatch: false,
		},
		{
			name:      "substring rejected",
			pattern:   `/bar`,
			path:      "/foo/bar",
			wantMatch: false,
		},
		{
			name:         "no captures",
			pattern:      `/echo`,
			path:         "/echo",
			wantMatch:    true,
			wantCaptures: []string{},
		},
		{
			name:         "optional group that matched nothing",
			pattern:      `/test/(\w+)?(.*)`,
			path:         "/test/123",
			wantMatch:    true,
			wantCaptures: []string{"123", ""},
		},
		{
			name:         "alternation anchored as a whole",
			pattern:      `/a|/b`,
			path:         "/b",
			wantMatch:    true,
			wantCaptures: []string{},
		},
		{
			name:      "alternation does not leak past anchors",
			pattern:   `/a|/b`,
			path:      "/a/x",
			wantMatch: false,
		},
		{
			name:         "multiple captures in order",
			pattern:      `/orders/(\d+)/items/(\d+)`,
			path:         "/orders/7/items/42",
			wantMatch:    true,
			wantCaptures: []string{"7", "42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := Compile(tt.pattern)
			require.NoError(t, err)

			captures, ok := p.Match(tt.path)

			assert.Equal(t, tt.wantMatch, ok)
			if tt.wantMatch {
				assert.Equal(t, tt.wantCaptures, captures)
			} else {
				assert.Nil(t, captures)
			}
		})
	}
}

func TestPattern_Accessors(t *testing.T) {
	t.Parallel()

	p := MustCompile(`/orders/(\d+)/items/(\d+)`)

	assert.Equal(t, `/orders/(\d+)/items/(\d+)`, p.String())
	assert.Equal(t, 2, p.Groups())
}

func TestCompile_CacheReuse(t *testing.T) {
	t.Parallel()

	a := MustCompile(`/cache/(\w+)/reuse`)
	b := MustCompile(`/cache/(\w+)/reuse`)

	assert.Same(t, a.regex, b.regex)
}

func TestCollectors(t *testing.T) {
	t.Parallel()

	assert.Len(t, Collectors(), 4)
}

func TestPattern_EmptyCaptureNotInParams(t *testing.T) {
	t.Parallel()

	p := MustCompile(`/a/(\w*)`)

	captures, ok := p.Match("/a/")
	require.True(t, ok)
	assert.Equal(t, []string{""}, captures)

	params := MergeParams(captures, "")
	_, found := params.Lookup("1")
	assert.False(t, found)
	assert.Equal(t, "{}", params.String())
}
