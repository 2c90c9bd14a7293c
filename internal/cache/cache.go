package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Cache sub directories.
const (
	OutputDir = "outputFiles/"
	MinioDir  = "miniocache/"
)

// Only files whose names carry this marker are ever reaped.
const fileMarker = "sds"

type Cache struct {
	Location string
	logger   *zap.Logger
}

func New(location string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{Location: location, logger: logger}
}

// Setup creates the cache directory tree.
func (c *Cache) Setup() error {
	for _, dir := range []string{"", OutputDir, MinioDir} {
		if err := os.MkdirAll(filepath.Join(c.Location, dir), 0755); err != nil {
			return fmt.Errorf("creating cache directory %s: %w", filepath.Join(c.Location, dir), err)
		}
	}
	return nil
}

// UrlToCacheFileName uses a url and query string
// to form SPC Data Services' cached file name.
func UrlToCacheFileName(url string) string {
	response := strings.Replace(url, "?", "_", 1)
	replacer := strings.NewReplacer("&", "", "=", "", ".", "", "/", "", "%", "")
	return fileMarker + "_" + replacer.Replace(response)
}

func (c *Cache) path(cacheFileName, subDir string) string {
	return filepath.Join(c.Location, subDir, cacheFileName)
}

// GetDataFromCache retrieves data from a provided `cacheFileName`
// within a `subDir` directory
func (c *Cache) GetDataFromCache(cacheFileName string, subDir string) ([]byte, error) {
	return os.ReadFile(c.path(cacheFileName, subDir))
}

// PutItemInCache places `data` into file denoted by `cacheFileName`
// within `subDir`
func (c *Cache) PutItemInCache(cacheFileName string, subDir string, data []byte) error {
	fullPath := c.path(cacheFileName, subDir)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return err
	}
	c.logger.Debug("Stored cache item", zap.String("file", fullPath), zap.Int("bytes", len(data)))
	return nil
}

// CheckCache purges `subDir` every `checkInterval` until ctx is done.
func (c *Cache) CheckCache(ctx context.Context, subDir string, checkInterval time.Duration, maxBytes int64) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		if _, err := c.Purge(subDir, maxBytes); err != nil {
			c.logger.Error("CheckCache error", zap.String("dir", subDir), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Purge removes the oldest cache files in `subDir` until it holds no more
// than `maxBytes`. Files without the cache marker are left alone.
func (c *Cache) Purge(subDir string, maxBytes int64) (int, error) {
	dir := filepath.Join(c.Location, subDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	var currentBytes int64
	var candidates []os.FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		currentBytes += info.Size()
		if strings.Contains(info.Name(), fileMarker) {
			candidates = append(candidates, info)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ModTime().Before(candidates[j].ModTime())
	})

	removed := 0
	for _, info := range candidates {
		if currentBytes <= maxBytes {
			break
		}
		c.logger.Info("Cache over maximum, removing old file",
			zap.String("file", info.Name()),
			zap.Int64("cache_bytes", currentBytes),
			zap.Int64("max_bytes", maxBytes),
		)
		if err := os.Remove(filepath.Join(dir, info.Name())); err != nil {
			c.logger.Error("Error removing cache file", zap.String("file", info.Name()), zap.Error(err))
			continue
		}
		currentBytes -= info.Size()
		removed++
	}
	if currentBytes > maxBytes {
		c.logger.Warn("Cache still over maximum; only files named with the sds marker are removed",
			zap.String("dir", dir),
			zap.Int64("cache_bytes", currentBytes),
		)
	}
	return removed, nil
}
