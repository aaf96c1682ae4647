// Package lint runs RSpec/ExampleWithoutDescription over files concurrently.
package lint

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/rspeclint/internal/config"
	"github.com/phobologic/rspeclint/internal/lang"
	"github.com/phobologic/rspeclint/internal/model"
	"github.com/phobologic/rspeclint/internal/parse"
	"github.com/phobologic/rspeclint/internal/rule"
)

// File is a file to inspect. Path is reported; Abs is read.
type File struct {
	Path string
	Abs  string
}

// Runner checks files with a fixed enforcement style.
type Runner struct {
	Style       config.Style
	Workers     int // defaults to GOMAXPROCS
	MaxFileSize int // 0 disables the limit
	Logger      *zap.Logger
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// CheckSource returns the offenses in one Ruby source, in source order.
func (r *Runner) CheckSource(ctx context.Context, parser *sitter.Parser, query *sitter.Query, source []byte) ([]model.Offense, error) {
	var offenses []model.Offense
	err := parse.Calls(ctx, parser, query, source, func(call, _ *sitter.Node) {
		off, ok := rule.Evaluate(rule.Classify(call, source), r.Style)
		if !ok {
			return
		}
		off.SourceLine = lineAt(source, off.Range.StartByte)
		offenses = append(offenses, off)
	})
	if err != nil {
		return nil, err
	}
	return offenses, nil
}

// Run inspects files and returns a report whose file order matches the input.
// Files that cannot be read or exceed MaxFileSize are logged and left out.
func (r *Runner) Run(ctx context.Context, files []File) (*model.Report, error) {
	if _, err := config.ParseStyle(string(r.Style)); err != nil {
		return nil, err
	}
	query, err := lang.Ruby.GetCallQuery()
	if err != nil {
		return nil, fmt.Errorf("loading query: %w", err)
	}

	log := r.logger()

	numWorkers := r.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	reports := make([]model.FileReport, len(files))
	valid := make([]bool, len(files))

	work := make(chan int)
	g, gctx := errgroup.WithContext(ctx)

	for range numWorkers {
		g.Go(func() error {
			// Each goroutine gets its own parser
			parser := lang.Ruby.NewParser()
			defer parser.Close()

			for idx := range work {
				f := files[idx]
				source, ok := r.read(f, log)
				if !ok {
					continue
				}

				offenses, err := r.CheckSource(gctx, parser, query, source)
				if err != nil {
					return fmt.Errorf("%s: %w", f.Path, err)
				}
				log.Debug("inspected file", zap.String("path", f.Path), zap.Int("offenses", len(offenses)))

				reports[idx] = model.FileReport{Path: f.Path, Offenses: offenses}
				valid[idx] = true
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(work)
		for i := range files {
			select {
			case work <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &model.Report{Style: string(r.Style)}
	for i, v := range valid {
		if v {
			report.Files = append(report.Files, reports[i])
			report.Inspected++
		}
	}
	return report, nil
}

func (r *Runner) read(f File, log *zap.Logger) ([]byte, bool) {
	if r.MaxFileSize > 0 {
		fi, err := os.Stat(f.Abs)
		if err == nil && fi.Size() > int64(r.MaxFileSize) {
			log.Warn("skipping large file", zap.String("path", f.Path), zap.Int("limit", r.MaxFileSize))
			return nil, false
		}
	}
	source, err := os.ReadFile(f.Abs)
	if err != nil {
		log.Warn("skipping unreadable file", zap.String("path", f.Path), zap.Error(err))
		return nil, false
	}
	return source, true
}

// lineAt returns the line of source containing offset, without its newline.
func lineAt(source []byte, offset int) string {
	if offset < 0 || offset > len(source) {
		return ""
	}
	start := bytes.LastIndexByte(source[:offset], '\n') + 1
	end := bytes.IndexByte(source[offset:], '\n')
	if end < 0 {
		return string(source[start:])
	}
	return string(bytes.TrimRight(source[start:offset+end], "\r"))
}
