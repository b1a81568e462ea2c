package router

import (
	"fmt"
	"regexp"
	"sync"
)

// Pattern is a compiled endpoint path template. It only matches a path in
// its entirety.
type Pattern struct {
	source string
	regex  *regexp.Regexp
}

// patternCacheMaxSize is the maximum number of entries in the compile cache.
const patternCacheMaxSize = 1000

// patternCacheEntry holds a compiled regex and its access order for LRU
// eviction.
type patternCacheEntry struct {
	regex       *regexp.Regexp
	accessOrder int64
}

var (
	patternCache         = make(map[string]*patternCacheEntry)
	patternCacheMu       sync.Mutex
	patternAccessCounter int64
)

// Compile compiles a path template. The template is anchored at both ends,
// so "/test/(\w+)" does not match "/test/123/456".
func Compile(pattern string) (*Pattern, error) {
	regex, err := compileAnchored(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid path pattern %q: %w", pattern, err)
	}
	return &Pattern{source: pattern, regex: regex}, nil
}

// MustCompile is like Compile but panics if the template is malformed.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// compileAnchored returns the anchored regex for pattern, reusing a cached
// compilation when one exists.
func compileAnchored(pattern string) (*regexp.Regexp, error) {
	metrics := getPatternCacheMetrics()

	patternCacheMu.Lock()
	if entry, ok := patternCache[pattern]; ok {
		patternAccessCounter++
		entry.accessOrder = patternAccessCounter
		patternCacheMu.Unlock()
		metrics.cacheHits.Inc()
		return entry.regex, nil
	}
	patternCacheMu.Unlock()

	metrics.cacheMisses.Inc()

	regex, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, err
	}

	patternCacheMu.Lock()
	defer patternCacheMu.Unlock()

	if existing, ok := patternCache[pattern]; ok {
		patternAccessCounter++
		existing.accessOrder = patternAccessCounter
		return existing.regex, nil
	}

	if len(patternCache) >= patternCacheMaxSize {
		evictLRUPatternEntry()
		metrics.cacheEvictions.Inc()
	}

	patternAccessCounter++
	patternCache[pattern] = &patternCacheEntry{
		regex:       regex,
		accessOrder: patternAccessCounter,
	}
	metrics.cacheSize.Set(float64(len(patternCache)))

	return regex, nil
}

// evictLRUPatternEntry removes the least recently used cache entry.
// Must be called with patternCacheMu held.
func evictLRUPatternEntry() {
	var lruKey string
	var lruOrder int64 = -1

	for key, entry := range patternCache {
		if lruOrder == -1 || entry.accessOrder < lruOrder {
			lruOrder = entry.accessOrder
			lruKey = key
		}
	}

	if lruKey != "" {
		delete(patternCache, lruKey)
	}
}

// Match reports whether path matches the whole pattern and returns the
// positional captures in group order. A group that did not participate in
// the match, or matched nothing, yields "". MergeParams skips such
// captures, so for `/a/(\w*)` on "/a/" Params.Lookup("1") reports false.
func (p *Pattern) Match(path string) ([]string, bool) {
	matches := p.regex.FindStringSubmatch(path)
	if matches == nil {
		return nil, false
	}
	return matches[1:], true
}

// Groups returns the number of capture groups in the pattern.
func (p *Pattern) Groups() int {
	return p.regex.NumSubexp()
}

// String returns the template the pattern was compiled from.
func (p *Pattern) String() string {
	return p.source
}
