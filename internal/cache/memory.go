package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is an in-process LRU with per-entry expiry
type Memory struct {
	lru *expirable.LRU[string, string]
}

var _ Cache = (*Memory)(nil)

// NewMemory creates an LRU holding at most size entries for ttl each
func NewMemory(size int, ttl time.Duration) *Memory {
	return &Memory{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

// Get implements sources.VersionCache
func (m *Memory) Get(_ context.Context, key string) (string, bool) {
	return m.lru.Get(key)
}

// Set implements sources.VersionCache
func (m *Memory) Set(_ context.Context, key, value string) {
	m.lru.Add(key, value)
}

// Len returns the number of live entries
func (m *Memory) Len() int {
	return m.lru.Len()
}

// Close implements Cache
func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}
