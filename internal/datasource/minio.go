package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spectriclabs/spc-data-service/internal/cache"
	"github.com/spectriclabs/spc-data-service/internal/config"
	"go.uber.org/zap"
)

type minioSource struct {
	client *minio.Client
	bucket string
	prefix string
	cache  *cache.Cache
	logger *zap.Logger
}

func newMinioSource(loc config.Location, c *cache.Cache, logger *zap.Logger) (*minioSource, error) {
	start := time.Now()
	client, err := minio.New(loc.Location, &minio.Options{
		Creds:  credentials.NewStaticV4(loc.MinioAccessKey, loc.MinioSecretKey, ""),
		Secure: loc.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("establishing connection to minio at %s: %w", loc.Location, err)
	}
	logger.Debug("Created minio client", zap.String("endpoint", loc.Location), zap.Duration("elapsed", time.Since(start)))
	return &minioSource{
		client: client,
		bucket: loc.MinioBucket,
		prefix: strings.Trim(loc.Path, "/"),
		cache:  c,
		logger: logger,
	}, nil
}

// key maps a location relative path to an object key.
func (s *minioSource) key(p string) string {
	return strings.TrimPrefix(path.Join(s.prefix, path.Clean("/"+p)), "/")
}

func (s *minioSource) mapError(p string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return err
}

func (s *minioSource) Stat(ctx context.Context, p string) (Entry, error) {
	key := s.key(p)
	if key != "" {
		info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
		if err == nil {
			return Entry{Filename: path.Base(key), Type: TypeFile, Size: info.Size}, nil
		}
		if err := s.mapError(p, err); !errors.Is(err, ErrNotFound) {
			return Entry{}, err
		}
	}

	// Prefixes only exist through the objects below them.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	prefix := dirPrefix(key)
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, MaxKeys: 1}) {
		if obj.Err != nil {
			return Entry{}, s.mapError(p, obj.Err)
		}
		return Entry{Filename: path.Base("/" + key), Type: TypeDirectory}, nil
	}
	if key == "" {
		return Entry{Filename: "/", Type: TypeDirectory}, nil
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, p)
}

func (s *minioSource) List(ctx context.Context, p string) ([]Entry, error) {
	prefix := dirPrefix(s.key(p))
	var filelist []Entry
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, s.mapError(p, obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" {
			continue
		}
		if strings.HasSuffix(name, "/") {
			filelist = append(filelist, Entry{Filename: strings.TrimSuffix(name, "/"), Type: TypeDirectory})
		} else {
			filelist = append(filelist, Entry{Filename: name, Type: TypeFile, Size: obj.Size})
		}
	}
	s.logger.Debug("Listed minio prefix", zap.String("bucket", s.bucket), zap.String("prefix", prefix), zap.Int("entries", len(filelist)))
	return filelist, nil
}

func (s *minioSource) cacheName(key string) string {
	return cache.UrlToCacheFileName(fmt.Sprintf("%s/%s", s.bucket, key))
}

func (s *minioSource) ReadFile(ctx context.Context, p string, maxBytes int64) ([]byte, error) {
	start := time.Now()
	key := s.key(p)
	if s.cache != nil {
		if data, err := s.cache.GetDataFromCache(s.cacheName(key), cache.MinioDir); err == nil {
			if int64(len(data)) > maxBytes {
				return nil, tooLarge(p, int64(len(data)), maxBytes)
			}
			s.logger.Debug("Minio file served from cache", zap.String("key", key))
			return data, nil
		}
		s.logger.Info("Minio file not in local file cache, need to fetch", zap.String("key", key))
	}

	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapError(p, err)
	}
	defer object.Close()

	fi, err := object.Stat()
	if err != nil {
		return nil, s.mapError(p, err)
	}
	if fi.Size > maxBytes {
		return nil, tooLarge(p, fi.Size, maxBytes)
	}
	fileData, err := io.ReadAll(io.LimitReader(object, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s from minio: %w", key, err)
	}
	if int64(len(fileData)) != fi.Size {
		return nil, fmt.Errorf("reading %s from minio: expected %d bytes, got %d", key, fi.Size, len(fileData))
	}

	if s.cache != nil {
		if err := s.cache.PutItemInCache(s.cacheName(key), cache.MinioDir, fileData); err != nil {
			s.logger.Warn("Error storing minio file in cache", zap.String("key", key), zap.Error(err))
		}
	}
	s.logger.Info("Fetched minio file", zap.String("key", key), zap.Int64("bytes", fi.Size), zap.Duration("elapsed", time.Since(start)))
	return fileData, nil
}

func dirPrefix(key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimSuffix(key, "/") + "/"
}
