package router

import (
	"strconv"
	"strings"
)

// Params is an insertion-ordered string map holding path captures and query
// parameters for one request. Setting an existing key replaces its value and
// keeps its original position.
type Params struct {
	keys   []string
	values map[string]string
}

// NewParams returns an empty Params.
func NewParams() *Params {
	return &Params{values: make(map[string]string)}
}

// MergeParams builds the parameter map for a matched request. Path captures
// come first, keyed by their 1-based group index; captures that matched
// nothing are skipped. Query pairs follow in order of appearance, split on
// '&' and then on the first '='. Values are kept as they appear on the wire.
func MergeParams(captures []string, rawQuery string) *Params {
	p := NewParams()

	for i, capture := range captures {
		if capture == "" {
			continue
		}
		p.Set(strconv.Itoa(i+1), capture)
	}

	if rawQuery == "" {
		return p
	}

	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		p.Set(key, value)
	}

	return p
}

// SplitTarget splits a request target into its path and raw query.
func SplitTarget(target string) (path, rawQuery string) {
	path, rawQuery, _ = strings.Cut(target, "?")
	return path, rawQuery
}

// Set stores value under key.
func (p *Params) Set(key, value string) {
	if p.values == nil {
		p.values = make(map[string]string)
	}
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value for key, or "" when absent.
func (p *Params) Get(key string) string {
	if p == nil {
		return ""
	}
	return p.values[key]
}

// Lookup returns the value for key and whether it was present.
func (p *Params) Lookup(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.values[key]
	return v, ok
}

// Len returns the number of entries.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Keys returns the keys in insertion order.
func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Range calls fn for each entry in insertion order until fn returns false.
func (p *Params) Range(fn func(key, value string) bool) {
	if p == nil {
		return
	}
	for _, k := range p.keys {
		if !fn(k, p.values[k]) {
			return
		}
	}
}

// Map returns an unordered copy of the entries.
func (p *Params) Map() map[string]string {
	out := make(map[string]string, p.Len())
	p.Range(func(k, v string) bool {
		out[k] = v
		return true
	})
	return out
}

// String renders the entries as {k1=v1, k2=v2}.
func (p *Params) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	p.Range(func(k, v string) bool {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
		return true
	})
	b.WriteByte('}')
	return b.String()
}
