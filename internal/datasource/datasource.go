// Package datasource resolves configured locations to SPC file bytes and
// directory listings, from the local filesystem or a MinIO bucket.
package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/spectriclabs/spc-data-service/internal/cache"
	"github.com/spectriclabs/spc-data-service/internal/config"
	"go.uber.org/zap"
)

var (
	ErrNotFound        = errors.New("path not found")
	ErrTooLarge        = errors.New("file too large")
	ErrUnknownLocation = errors.New("unknown location")
)

// Entry types.
const (
	TypeFile      = "file"
	TypeDirectory = "directory"
)

// Entry is one item of a directory listing.
type Entry struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
	Size     int64  `json:"size,omitempty"`
}

// Source reads from one configured location. Paths are relative to the
// location root and use forward slashes.
type Source interface {
	// Stat reports whether path is a file or a directory.
	Stat(ctx context.Context, path string) (Entry, error)
	// List returns the entries directly below path.
	List(ctx context.Context, path string) ([]Entry, error)
	// ReadFile returns the whole file, failing with ErrTooLarge when it
	// holds more than maxBytes.
	ReadFile(ctx context.Context, path string, maxBytes int64) ([]byte, error)
}

// Open returns the Source for the location called locationName.
func Open(cfg *config.Config, sdsCache *cache.Cache, logger *zap.Logger, locationName string) (Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, ok := cfg.FindLocation(locationName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocation, locationName)
	}
	logger = logger.With(zap.String("location_name", loc.LocationName))

	switch loc.LocationType {
	case config.LocationLocalFile:
		return &localSource{root: loc.Path, logger: logger}, nil
	case config.LocationMinio:
		var c *cache.Cache
		if cfg.UseCache {
			c = sdsCache
		}
		return newMinioSource(loc, c, logger)
	default:
		return nil, fmt.Errorf("unsupported location type %s in %s", loc.LocationType, loc.LocationName)
	}
}

func tooLarge(path string, size, maxBytes int64) error {
	return fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrTooLarge, path, size, maxBytes)
}
