package spritecomp

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
)

// sampleEntry records a resolver answer, including "no such item", so
// misses are cached too.
type sampleEntry struct {
	inst Instance
	ok   bool
}

// sampleCache memoizes ItemResolver.Sample for preserve predicates, which
// run on every draw. The cache may drop entries at will; it is only ever
// an optimization over the resolver.
type sampleCache struct {
	cache    *ristretto.Cache[string, sampleEntry]
	resolver ItemResolver
}

func newSampleCache(resolver ItemResolver) (*sampleCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, sampleEntry]{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("spritecomp: sample cache: %w", err)
	}
	return &sampleCache{cache: c, resolver: resolver}, nil
}

// Sample returns the representative instance for qualifiedID.
func (s *sampleCache) Sample(qualifiedID string) (Instance, bool) {
	if e, ok := s.cache.Get(qualifiedID); ok {
		return e.inst, e.ok
	}
	inst, ok := s.resolver.Sample(qualifiedID)
	s.cache.Set(qualifiedID, sampleEntry{inst: inst, ok: ok}, 1)
	s.cache.Wait()
	return inst, ok
}

// clear drops every cached sample, e.g. after item definitions reload.
func (s *sampleCache) clear() {
	s.cache.Clear()
}

func (s *sampleCache) close() {
	s.cache.Close()
}
