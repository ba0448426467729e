package project_scanner

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/meysamhadeli/projctx/metrics"
	"github.com/meysamhadeli/projctx/project_scanner/models"
	"github.com/zeebo/xxh3"
)

// FileAnalysis holds the content signals derived from reading one file.
type FileAnalysis struct {
	Preview           string
	FrontMatterSource string
	Imports           []string
}

// CacheEntry represents a cached analysis with the file metadata it was derived from
type CacheEntry struct {
	Analysis  FileAnalysis
	Timestamp time.Time
	FileSize  int64
	ModTime   time.Time
}

// CacheManager stores per-file analyses on disk, invalidated by modification time and size
type CacheManager struct {
	cacheDir string
	mutex    sync.RWMutex

	lookupMutex sync.Mutex
	lookups     models.LookupStats
}

const cacheFileSuffix = ".cache"

// NewCacheManager creates a new cache manager rooted at cacheDir
func NewCacheManager(cacheDir string) (*CacheManager, error) {
	if cacheDir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &CacheManager{
		cacheDir: cacheDir,
		lookups:  models.LookupStats{Since: time.Now()},
	}, nil
}

// generateCacheKey creates a unique cache key for a file
func (cm *CacheManager) generateCacheKey(filePath string) string {
	return fmt.Sprintf("%016x%s", xxh3.HashString(filePath), cacheFileSuffix)
}

// getCachePath returns the full path to a cache file
func (cm *CacheManager) getCachePath(filePath string) string {
	return filepath.Join(cm.cacheDir, cm.generateCacheKey(filePath))
}

// Get returns the cached analysis for filePath if info still matches the cached metadata
func (cm *CacheManager) Get(filePath string, info fs.FileInfo) (*FileAnalysis, bool) {
	cm.mutex.RLock()
	data, err := os.ReadFile(cm.getCachePath(filePath))
	cm.mutex.RUnlock()
	if err != nil {
		cm.recordLookup(false)
		return nil, false
	}

	var entry CacheEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil {
		cm.recordLookup(false)
		return nil, false
	}

	// Stale entries are left to be overwritten by the next Set
	if !info.ModTime().Equal(entry.ModTime) || info.Size() != entry.FileSize {
		cm.recordLookup(false)
		return nil, false
	}

	cm.recordLookup(true)
	return &entry.Analysis, true
}

// Set stores the analysis of filePath together with its current metadata
func (cm *CacheManager) Set(filePath string, info fs.FileInfo, analysis FileAnalysis) error {
	entry := CacheEntry{
		Analysis:  analysis,
		Timestamp: time.Now(),
		FileSize:  info.Size(),
		ModTime:   info.ModTime(),
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cachePath := cm.getCachePath(filePath)
	tmpPath := cachePath + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmpPath, cachePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

// Delete removes the cached analysis of filePath
func (cm *CacheManager) Delete(filePath string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if err := os.Remove(cm.getCachePath(filePath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}

// ClearCache removes every cache file and resets the statistics
func (cm *CacheManager) ClearCache() error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	entries, err := os.ReadDir(cm.cacheDir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), cacheFileSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(cm.cacheDir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove cache file %s: %w", entry.Name(), err)
		}
	}

	cm.ResetLookupStats()
	return nil
}

// CleanExpiredCache removes cache files older than maxAge and returns how many were removed
func (cm *CacheManager) CleanExpiredCache(maxAge time.Duration) (int, error) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	entries, err := os.ReadDir(cm.cacheDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), cacheFileSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(cm.cacheDir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Stats reports the number and size of cache files and the lookup counters
func (cm *CacheManager) Stats() (models.CacheStats, error) {
	cm.mutex.RLock()
	entries, err := os.ReadDir(cm.cacheDir)
	cm.mutex.RUnlock()
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("failed to read cache directory: %w", err)
	}

	stats := models.CacheStats{Enabled: true, Dir: cm.cacheDir, Lookups: cm.LookupStats()}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), cacheFileSuffix) {
			continue
		}
		if info, err := entry.Info(); err == nil {
			stats.TotalBytes += info.Size()
			stats.Entries++
		}
	}
	return stats, nil
}

func (cm *CacheManager) recordLookup(hit bool) {
	metrics.RecordCacheLookup(hit)

	cm.lookupMutex.Lock()
	defer cm.lookupMutex.Unlock()
	if hit {
		cm.lookups.Hits++
	} else {
		cm.lookups.Misses++
	}
}

// LookupStats returns the hit and miss counters since the last reset
func (cm *CacheManager) LookupStats() models.LookupStats {
	cm.lookupMutex.Lock()
	defer cm.lookupMutex.Unlock()
	return cm.lookups
}

// ResetLookupStats zeroes the hit and miss counters
func (cm *CacheManager) ResetLookupStats() {
	cm.lookupMutex.Lock()
	defer cm.lookupMutex.Unlock()
	cm.lookups = models.LookupStats{Since: time.Now()}
}
