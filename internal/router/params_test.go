package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		captures   []string
		rawQuery   string
		wantString string
		wantKeys   []string
	}{
		{
			name:       "empty",
			wantString: "{}",
			wantKeys:   []string{},
		},
		{
			name:       "captures then query",
			captures:   []string{"123", ""},
			rawQuery:   "a=1&b=2",
			wantString: "{1=123, a=1, b=2}",
			wantKeys:   []string{"1", "a", "b"},
		},
		{
			name:       "captures keyed by group index",
			captures:   []string{"", "x"},
			wantString: "{2=x}",
			wantKeys:   []string{"2"},
		},
		{
			name:       "query only",
			rawQuery:   "z=26&a=1",
			wantString: "{z=26, a=1}",
			wantKeys:   []string{"z", "a"},
		},
		{
			name:       "empty pairs ignored",
			rawQuery:   "&a=1&&b=2&",
			wantString: "{a=1, b=2}",
			wantKeys:   []string{"a", "b"},
		},
		{
			name:       "pair without equals",
			rawQuery:   "flag&a=1",
			wantString: "{flag=, a=1}",
			wantKeys:   []string{"flag", "a"},
		},
		{
			name:       "split on first equals only",
			rawQuery:   "expr=a=b",
			wantString: "{expr=a=b}",
			wantKeys:   []string{"expr"},
		},
		{
			name:       "repeated key keeps position, last value wins",
			rawQuery:   "a=1&b=2&a=3",
			wantString: "{a=3, b=2}",
			wantKeys:   []string{"a", "b"},
		},
		{
			name:       "no percent decoding",
			rawQuery:   "q=hello%20world",
			wantString: "{q=hello%20world}",
			wantKeys:   []string{"q"},
		},
		{
			name:       "query overrides positional key",
			captures:   []string{"123"},
			rawQuery:   "1=override",
			wantString: "{1=override}",
			wantKeys:   []string{"1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := MergeParams(tt.captures, tt.rawQuery)

			assert.Equal(t, tt.wantString, p.String())
			assert.Equal(t, tt.wantKeys, p.Keys())
			assert.Equal(t, len(tt.wantKeys), p.Len())
		})
	}
}

func TestParams_Accessors(t *testing.T) {
	t.Parallel()

	p := NewParams()
	p.Set("b", "2")
	p.Set("a", "1")

	assert.Equal(t, "2", p.Get("b"))
	assert.Equal(t, "", p.Get("missing"))

	v, ok := p.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = p.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, p.Map())

	var visited []string
	p.Range(func(k, _ string) bool {
		visited = append(visited, k)
		return false
	})
	assert.Equal(t, []string{"b"}, visited)
}

func TestParams_Nil(t *testing.T) {
	t.Parallel()

	var p *Params

	assert.Equal(t, "", p.Get("a"))
	assert.Equal(t, 0, p.Len())
	assert.Nil(t, p.Keys())
	assert.Equal(t, "{}", p.String())
	assert.Empty(t, p.Map())
}

func TestParams_ZeroValueSet(t *testing.T) {
	t.Parallel()

	var p Params
	p.Set("k", "v")

	assert.Equal(t, "{k=v}", p.String())
}

func TestSplitTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target    string
		wantPath  string
		wantQuery string
	}{
		{target: "/a", wantPath: "/a"},
		{target: "/a?b=1", wantPath: "/a", wantQuery: "b=1"},
		{target: "/a?", wantPath: "/a"},
		{target: "/a?b=1?c", wantPath: "/a", wantQuery: "b=1?c"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			t.Parallel()

			path, query := SplitTarget(tt.target)
			assert.Equal(t, tt.wantPath, path)
			assert.Equal(t, tt.wantQuery, query)
		})
	}
}
