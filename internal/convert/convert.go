// Package convert writes SPC files out as delimited text, several files at
// a time.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/spectriclabs/spc-data-service/internal/spc"
	"go.uber.org/zap"
)

// spcPattern matches SPC file names regardless of case.
const spcPattern = "*.[sS][pP][cC]"

// Format is an output text flavour.
type Format struct {
	Delim string
	Ext   string
}

var (
	TabSeparated   = Format{Delim: "\t", Ext: ".txt"}
	CommaSeparated = Format{Delim: ",", Ext: ".csv"}
)

// ErrSameTarget is returned for a source that already carries the output
// extension, since converting it would overwrite the input.
var ErrSameTarget = errors.New("output would overwrite the source")

// Result is the outcome of converting one file.
type Result struct {
	Source   string
	Target   string
	Subfiles int
	Err      error
}

// Converter converts files with a bounded number of workers.
type Converter struct {
	Format  Format
	Newline string
	Jobs    int
	Logger  *zap.Logger
}

// New returns a Converter writing tab separated text with "\n" line ends
// on one worker per CPU.
func New(logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		Format:  TabSeparated,
		Newline: "\n",
		Jobs:    runtime.NumCPU(),
		Logger:  logger,
	}
}

// Expand turns each path into the SPC files it names. A directory yields
// the SPC files directly inside it, in name order; a file is kept as
// given. Paths that cannot be read are reported together in the error and
// skipped.
func Expand(paths []string) ([]string, error) {
	var files []string
	var errs error
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		if !fi.IsDir() {
			files = append(files, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		var found []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if ok, _ := filepath.Match(spcPattern, entry.Name()); ok {
				found = append(found, filepath.Join(p, entry.Name()))
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, errs
}

// TargetPath replaces the extension of src with ext.
func TargetPath(src, ext string) string {
	return src[:len(src)-len(filepath.Ext(src))] + ext
}

// ConvertFile decodes src and writes its text next to it. Nothing is left
// behind when the conversion fails.
func (c *Converter) ConvertFile(src string) Result {
	start := time.Now()
	r := Result{Source: src, Target: TargetPath(src, c.Format.Ext)}
	if filepath.Clean(r.Target) == filepath.Clean(src) {
		r.Err = fmt.Errorf("%s: %w", src, ErrSameTarget)
		return r
	}

	f, err := spc.Decode(src)
	if err != nil {
		r.Err = err
		return r
	}
	r.Subfiles = len(f.Subfiles)
	if f.LogErr != nil {
		c.Logger.Debug("Log block dropped", zap.String("source", src), zap.Error(f.LogErr))
	}

	if err := c.write(r.Target, f); err != nil {
		r.Err = err
		return r
	}
	c.Logger.Info("Converted",
		zap.String("source", src),
		zap.String("target", r.Target),
		zap.Int("subfiles", r.Subfiles),
		zap.Duration("elapsed", time.Since(start)),
	)
	return r
}

func (c *Converter) write(target string, f *spc.File) (err error) {
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(target)
		}
	}()
	if err := spc.WriteText(out, f, c.Format.Delim, c.Newline); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return nil
}

// Run converts files with at most Jobs conversions in flight. Results are
// returned in the order of files. Files not started before ctx is done
// fail with the context error.
func (c *Converter) Run(ctx context.Context, files []string) []Result {
	jobs := c.Jobs
	if jobs < 1 {
		jobs = 1
	}

	results := make([]Result, len(files))
	sem := make(chan struct{}, jobs)
	var wg sync.WaitGroup
	for i, src := range files {
		if err := acquire(ctx, sem); err != nil {
			results[i] = Result{Source: src, Err: err}
			continue
		}
		wg.Add(1)
		go func(i int, src string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = c.ConvertFile(src)
			if err := results[i].Err; err != nil {
				c.Logger.Error("Error processing file", zap.String("source", src), zap.Error(err))
			}
		}(i, src)
	}
	wg.Wait()
	return results
}

func acquire(ctx context.Context, sem chan struct{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Failed counts the results that carry an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
