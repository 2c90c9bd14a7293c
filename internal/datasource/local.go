package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

type localSource struct {
	root   string
	logger *zap.Logger
}

// resolve joins p to the root without letting it climb above it.
func (s *localSource) resolve(p string) string {
	return filepath.Join(s.root, filepath.FromSlash(filepath.Clean("/"+p)))
}

func notFound(p string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return err
}

func (s *localSource) Stat(_ context.Context, p string) (Entry, error) {
	fi, err := os.Stat(s.resolve(p))
	if err != nil {
		return Entry{}, notFound(p, err)
	}
	e := Entry{Filename: fi.Name(), Type: TypeFile, Size: fi.Size()}
	if fi.IsDir() {
		e.Type, e.Size = TypeDirectory, 0
	}
	return e, nil
}

func (s *localSource) List(_ context.Context, p string) ([]Entry, error) {
	dir := s.resolve(p)
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, notFound(p, err)
	}
	s.logger.Debug("Listing local directory", zap.String("path", dir), zap.Int("entries", len(files)))

	filelist := make([]Entry, 0, len(files))
	for _, file := range files {
		e := Entry{Filename: file.Name(), Type: TypeFile}
		if file.IsDir() {
			e.Type = TypeDirectory
		} else if info, err := file.Info(); err == nil {
			e.Size = info.Size()
		}
		filelist = append(filelist, e)
	}
	sort.Slice(filelist, func(i, j int) bool { return filelist[i].Filename < filelist[j].Filename })
	return filelist, nil
}

func (s *localSource) ReadFile(_ context.Context, p string, maxBytes int64) ([]byte, error) {
	fullFilepath := s.resolve(p)
	s.logger.Info("Reading local file", zap.String("filename", p), zap.String("path", fullFilepath))

	file, err := os.Open(fullFilepath)
	if err != nil {
		return nil, notFound(p, err)
	}
	defer file.Close()

	fi, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, p)
	}
	if fi.Size() > maxBytes {
		return nil, tooLarge(p, fi.Size(), maxBytes)
	}
	return io.ReadAll(io.LimitReader(file, maxBytes))
}
