package models

import "time"

// LookupStats counts analysis cache lookups since a reset.
type LookupStats struct {
	Hits   int64     `json:"hits" yaml:"hits"`
	Misses int64     `json:"misses" yaml:"misses"`
	Since  time.Time `json:"since" yaml:"since"`
}

// Total is the number of lookups.
func (l LookupStats) Total() int64 {
	return l.Hits + l.Misses
}

// HitRate is the share of lookups served from the cache, in percent.
func (l LookupStats) HitRate() float64 {
	if l.Total() == 0 {
		return 0
	}
	return float64(l.Hits) / float64(l.Total()) * 100
}

// CacheStats describes the on-disk file analysis cache.
type CacheStats struct {
	Enabled    bool        `json:"enabled" yaml:"enabled"`
	Dir        string      `json:"dir,omitempty" yaml:"dir,omitempty"`
	Entries    int         `json:"entries" yaml:"entries"`
	TotalBytes int64       `json:"total_bytes" yaml:"total_bytes"`
	Lookups    LookupStats `json:"lookups" yaml:"lookups"`
}
