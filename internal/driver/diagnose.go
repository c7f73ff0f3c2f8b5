// Package driver runs the node: protocol rule over files and directories.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"

	"nodeproto/internal/diag"
	"nodeproto/internal/jsast"
	"nodeproto/internal/lint"
	"nodeproto/internal/nodeproto"
	"nodeproto/internal/observ"
	"nodeproto/internal/project"
	"nodeproto/internal/source"
)

// ErrNoRule is returned when Options.Rule is nil.
var ErrNoRule = errors.New("driver: rule is not configured")

// Options control one run.
type Options struct {
	Rule *lint.Rule

	FS         billy.Filesystem // nil = source.HostFS()
	BaseDir    string           // база для относительных путей в выводе
	Extensions []string         // nil = project.DefaultExtensions
	Exclude    []string         // имена или шаблоны каталогов; nil = project.DefaultExclude

	Jobs           int // <= 0 = GOMAXPROCS
	MaxDiagnostics int // на файл, <= 0 = без лимита
	Timings        bool

	Cache    *DiskCache // nil отключает дисковый кэш
	Logger   *zap.Logger
	Progress ProgressSink
}

func (o *Options) filesystem() billy.Filesystem {
	if o.FS == nil {
		return source.HostFS()
	}
	return o.FS
}

func (o *Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o *Options) extensions() []string {
	if o.Extensions == nil {
		return project.DefaultExtensions
	}
	return o.Extensions
}

func (o *Options) exclude() []string {
	if o.Exclude == nil {
		return project.DefaultExclude
	}
	return o.Exclude
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path   string
	FileID source.FileID
	Bag    *diag.Bag
	Cached bool
	Broken bool // файл не загрузился или содержит синтаксические ошибки
	Timing *observ.Report
}

// Result of DiagnoseFile or DiagnoseDir. Files are in path order.
type Result struct {
	FileSet *source.FileSet
	Files   []FileResult
	Timing  *observ.Report // сумма по файлам, только с Options.Timings
}

// Bag merges all per-file bags into one sorted bag limited to max entries.
func (r *Result) Bag(max int) *diag.Bag {
	out := diag.NewBag(max)
	for _, f := range r.Files {
		out.Merge(f.Bag)
	}
	out.Sort()
	return out
}

// Diagnostics returns every diagnostic of the run in file order.
func (r *Result) Diagnostics() []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, f := range r.Files {
		if f.Bag != nil {
			out = append(out, f.Bag.Items()...)
		}
	}
	return out
}

// HasProblems reports whether any file has a diagnostic other than timings.
func (r *Result) HasProblems() bool {
	for _, f := range r.Files {
		if f.Bag == nil {
			continue
		}
		for _, d := range f.Bag.Items() {
			if d.Code != diag.ObsTimings {
				return true
			}
		}
	}
	return false
}

// DiagnoseFile lints a single file.
func DiagnoseFile(ctx context.Context, path string, opts Options) (*Result, error) {
	if opts.Rule == nil {
		return nil, ErrNoRule
	}
	fileSet := source.NewFileSetWithBase(opts.BaseDir)
	r := newRunner(&opts, 1)

	timer := newTimer(opts.Timings)
	loadIdx := timer.Begin("load")
	id, loadErr := fileSet.Load(opts.filesystem(), path)
	timer.End(loadIdx, "")
	if loadErr != nil {
		id = fileSet.Add(path, nil, source.FileVirtual)
	}
	res, err := r.lintFile(ctx, fileSet, id, loadErr, timer)
	if err != nil {
		return nil, err
	}
	return &Result{FileSet: fileSet, Files: []FileResult{res}}, nil
}

// runner holds the per-run state shared by workers.
type runner struct {
	opts *Options
	log  *zap.Logger
	mem  *MemoryCache
}

func newRunner(opts *Options, files int) *runner {
	return &runner{
		opts: opts,
		log:  opts.logger().With(zap.String("rule", opts.Rule.Name())),
		mem:  NewMemoryCache(files),
	}
}

func newTimer(enabled bool) *observ.Timer {
	if !enabled {
		return nil
	}
	return observ.NewTimer()
}

// lintFile runs parse and lint for a file already present in fileSet.
// Only rule evaluation errors are returned; per-file problems become
// diagnostics.
func (r *runner) lintFile(ctx context.Context, fileSet *source.FileSet, id source.FileID, loadErr error, timer *observ.Timer) (FileResult, error) {
	started := time.Now()
	file := fileSet.Get(id)
	bag := diag.NewBag(r.opts.MaxDiagnostics)
	res := FileResult{Path: file.Path, FileID: id, Bag: bag}
	fileSpan := source.Span{File: id}
	progress := r.opts.Progress

	finish := func(status Status) {
		if timer != nil {
			report := timer.Report()
			res.Timing = &report
			appendTimingDiagnostic(bag, fileSpan, timingPayload{
				Kind:    "file",
				Path:    file.Path,
				TotalMS: report.TotalMS,
				Phases:  report.Phases,
			})
		}
		progress.emit(Event{File: file.Path, Stage: StageLint, Status: status, Diagnostics: bag.Len(), Cached: res.Cached})
		r.log.Debug("file linted",
			zap.String("file", file.Path),
			zap.Int("diagnostics", bag.Len()),
			zap.Bool("cache", res.Cached),
			zap.Duration("elapsed", time.Since(started)),
		)
	}

	if loadErr != nil {
		res.Broken = true
		diag.ReportError(diag.BagReporter{Bag: bag}, diag.IOLoadFileError, fileSpan, "failed to load file: "+loadErr.Error()).Emit()
		r.log.Warn("load failed", zap.String("file", file.Path), zap.Error(loadErr))
		finish(StatusError)
		return res, nil
	}

	dialect, ok := jsast.DialectFor(file.Path)
	if !ok {
		res.Broken = true
		diag.ReportError(diag.BagReporter{Bag: bag}, diag.SynUnsupported, fileSpan,
			fmt.Sprintf("unsupported file type %q", file.Path)).Emit()
		finish(StatusError)
		return res, nil
	}

	key := cacheKey(r.opts.Rule, dialect, file.Hash)
	payload, cached := r.lookup(key, file.Path)
	if !cached {
		progress.emit(Event{File: file.Path, Stage: StageParse, Status: StatusWorking})
		var err error
		payload, err = r.analyze(ctx, file, dialect, timer)
		if err != nil {
			return res, err
		}
		r.store(key, payload, file.Path)
	}
	res.Cached = cached

	if payload.Broken {
		res.Broken = true
		errSpan := source.Span{File: id, Start: payload.ErrorStart, End: payload.ErrorEnd}
		diag.ReportError(diag.BagReporter{Bag: bag}, diag.SynParseError, errSpan, "syntax error; file not linted").Emit()
		finish(StatusError)
		return res, nil
	}
	r.opts.Rule.Report(diag.BagReporter{Bag: bag}, payloadFindings(payload, id))
	finish(StatusDone)
	return res, nil
}

// analyze parses and lints file without touching any cache.
func (r *runner) analyze(ctx context.Context, file *source.File, dialect jsast.Dialect, timer *observ.Timer) (*DiskPayload, error) {
	var tree *jsast.Tree
	err := timer.Measure("parse", func() error {
		var perr error
		tree, perr = jsast.ParseBytes(ctx, file.ID, dialect, file.Content)
		return perr
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file.Path, err)
	}
	defer tree.Close()

	if errSpan, broken := tree.FirstError(); broken {
		return brokenPayload(errSpan), nil
	}

	r.opts.Progress.emit(Event{File: file.Path, Stage: StageLint, Status: StatusWorking})
	var findings []nodeproto.Finding
	err = timer.Measure("lint", func() error {
		var lerr error
		findings, lerr = r.opts.Rule.Findings(tree)
		return lerr
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file.Path, err)
	}
	return findingsToPayload(findings), nil
}

func (r *runner) lookup(key Digest, path string) (*DiskPayload, bool) {
	if p, ok := r.mem.Get(key); ok {
		return p, true
	}
	if r.opts.Cache == nil {
		return nil, false
	}
	var payload DiskPayload
	ok, err := r.opts.Cache.Get(key, &payload)
	if err != nil {
		// битая запись - просто промах
		r.log.Debug("cache read failed", zap.String("file", path), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	r.mem.Put(key, &payload)
	return &payload, true
}

func (r *runner) store(key Digest, payload *DiskPayload, path string) {
	r.mem.Put(key, payload)
	if r.opts.Cache == nil {
		return
	}
	if err := r.opts.Cache.Put(key, payload); err != nil {
		r.log.Warn("cache write failed", zap.String("file", path), zap.Error(err))
	}
}
