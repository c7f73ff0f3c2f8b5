package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nodeproto/internal/observ"
	"nodeproto/internal/source"
)

// DiscoverFiles returns the sorted list of files under root whose extension
// is in exts. Directories matching exclude (by name or glob) are skipped.
func DiscoverFiles(fsys billy.Filesystem, root string, exts, exclude []string) ([]string, error) {
	want := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		want[strings.ToLower(e)] = struct{}{}
	}

	var files []string
	err := util.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != root && excluded(info.Name(), exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := want[strings.ToLower(filepath.Ext(path))]; ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

func excluded(name string, patterns []string) bool {
	for _, p := range patterns {
		if p == name {
			return true
		}
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// runMetrics counts per-run outcomes across workers.
type runMetrics struct {
	completed atomic.Int64
	broken    atomic.Int64
	cacheHits atomic.Int64
}

// DiagnoseDir lints every matching file under dir in parallel.
func DiagnoseDir(ctx context.Context, dir string, opts Options) (*Result, error) {
	if opts.Rule == nil {
		return nil, ErrNoRule
	}
	started := time.Now()
	fsys := opts.filesystem()
	files, err := DiscoverFiles(fsys, dir, opts.extensions(), opts.exclude())
	if err != nil {
		return nil, err
	}

	baseDir := opts.BaseDir
	if baseDir == "" {
		baseDir = dir
	}
	fileSet := source.NewFileSetWithBase(baseDir)
	if len(files) == 0 {
		return &Result{FileSet: fileSet}, nil
	}

	for _, p := range files {
		opts.Progress.emit(Event{File: p, Stage: StageLoad, Status: StatusQueued})
	}

	// Предзагружаем все файлы последовательно: FileID совпадает с индексом.
	fileIDs := make([]source.FileID, len(files))
	loadErrors := make([]error, len(files))
	loadTimes := make([]time.Duration, len(files))
	for i, p := range files {
		t0 := time.Now()
		id, loadErr := fileSet.Load(fsys, p)
		loadTimes[i] = time.Since(t0)
		if loadErr != nil {
			id = fileSet.Add(p, nil, source.FileVirtual)
			loadErrors[i] = loadErr
		}
		fileIDs[i] = id
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	r := newRunner(&opts, len(files))
	var metrics runMetrics

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i := range files {
		g.Go(func() error {
			// Проверка отмены
			if err := gctx.Err(); err != nil {
				return err
			}
			timer := newTimer(opts.Timings)
			timer.Record("load", loadTimes[i], "")
			res, err := r.lintFile(gctx, fileSet, fileIDs[i], loadErrors[i], timer)
			if err != nil {
				return err
			}
			results[i] = res
			metrics.completed.Add(1)
			if res.Broken {
				metrics.broken.Add(1)
			}
			if res.Cached {
				metrics.cacheHits.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var runTiming *observ.Report
	if opts.Timings {
		total := observ.Report{}
		for _, res := range results {
			if res.Timing != nil {
				total.Merge(*res.Timing)
			}
		}
		runTiming = &total
		appendTimingDiagnostic(results[0].Bag, source.Span{File: fileIDs[0]}, timingPayload{
			Kind:    "run",
			Path:    dir,
			TotalMS: total.TotalMS,
			Phases:  total.Phases,
		})
	}

	opts.Progress.emit(Event{Stage: StageLint, Status: StatusDone})
	r.log.Info("directory linted",
		zap.String("dir", dir),
		zap.Int("files", len(files)),
		zap.Int64("completed", metrics.completed.Load()),
		zap.Int64("broken", metrics.broken.Load()),
		zap.Int64("cache_hits", metrics.cacheHits.Load()),
		zap.Duration("elapsed", time.Since(started)),
	)
	return &Result{FileSet: fileSet, Files: results, Timing: runTiming}, nil
}
