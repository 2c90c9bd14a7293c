package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/spectriclabs/spc-data-service/internal/app"
	"github.com/spectriclabs/spc-data-service/internal/convert"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

var newlines = map[string]string{
	"lf":   "\n",
	"crlf": "\r\n",
	"cr":   "\r",
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("spc2txt", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: spc2txt [flags] PATH...")
		fmt.Fprintln(os.Stderr, "Converts SPC files, or the SPC files in each directory, to text next to the source.")
		fs.PrintDefaults()
	}
	jobs := fs.IntP("jobs", "j", runtime.NumCPU(), "Number of files converted at once")
	csv := fs.BoolP("csv", "c", false, "Write comma separated .csv files instead of tab separated .txt")
	newline := fs.StringP("newline", "n", "lf", "Line ending: lf, crlf or cr")
	debug := fs.BoolP("debug", "d", false, "Whether or not to enable debug logging")
	cpuprofile := fs.String("cpuprofile", "", "Profile the conversion and write to file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	nl, ok := newlines[*newline]
	if !ok {
		fmt.Fprintf(os.Stderr, "spc2txt: newline must be lf, crlf or cr, got %q\n", *newline)
		return 2
	}

	logger, err := app.SetupLogger(*debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "spc2txt: couldn't setup logger:", err)
		return 1
	}
	defer logger.Sync()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			logger.Error("An error creating a file occurred", zap.String("profile_file", *cpuprofile), zap.Error(err))
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Error("Couldn't start profiling", zap.Error(err))
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	status := 0
	files, err := convert.Expand(fs.Args())
	if err != nil {
		logger.Error("Some paths could not be read", zap.Error(err))
		status = 1
	}

	c := convert.New(logger)
	c.Jobs = *jobs
	c.Newline = nl
	if *csv {
		c.Format = convert.CommaSeparated
	}

	start := time.Now()
	results := c.Run(ctx, files)
	failed := convert.Failed(results)
	logger.Info("Conversion finished",
		zap.Int("files", len(results)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	if failed > 0 {
		status = 1
	}
	return status
}
