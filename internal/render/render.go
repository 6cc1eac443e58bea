// Package render is the file boundary of the chart pipeline. A Runner reads
// chart sources, compiles and lays them out, and writes SVG or PDF files,
// optionally packed into a tar bundle. Compiled charts and geometry are kept
// in memory; finished renders can also be stored in a content-addressed blob
// store with a SQLite index, so unchanged sources are not rendered twice.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/cleanchart/core/assemble"
	"github.com/FocuswithJustin/cleanchart/core/cache"
	"github.com/FocuswithJustin/cleanchart/core/cas"
	"github.com/FocuswithJustin/cleanchart/core/chart"
	cerrors "github.com/FocuswithJustin/cleanchart/core/errors"
	"github.com/FocuswithJustin/cleanchart/core/layout"
	"github.com/FocuswithJustin/cleanchart/internal/archive"
	"github.com/FocuswithJustin/cleanchart/internal/config"
	"github.com/FocuswithJustin/cleanchart/internal/logging"
	"github.com/FocuswithJustin/cleanchart/internal/store"
	"github.com/FocuswithJustin/cleanchart/internal/telemetry"
	"github.com/FocuswithJustin/cleanchart/internal/validation"
)

// Options configures a Runner.
type Options struct {
	Format Format
	// OutDir receives the rendered files. It is created when missing.
	OutDir string
	// Bundle packs each chart's files with a manifest into one archive.
	Bundle      bool
	Compression archive.Compression

	Layout  layout.Config
	Compile assemble.Options
	Metrics layout.TextMetrics

	// CacheDir enables the persistent render cache: blobs under
	// CacheDir/cas and the index in CacheDir/renders.db.
	CacheDir string

	// Workers bounds RenderFiles. Zero means one per CPU.
	Workers int
	// MaxSourceSize bounds each source file. Zero means validation.MaxSourceSize.
	MaxSourceSize int64
}

// DefaultOptions renders SVG into the current directory.
func DefaultOptions() Options {
	return Options{
		Format:      FormatSVG,
		OutDir:      ".",
		Compression: archive.XZ,
		Layout:      layout.DefaultConfig(),
		Compile:     assemble.DefaultOptions(),
	}
}

// Result describes the render of one file.
type Result struct {
	File        string
	RunID       string
	Title       string
	Pages       int
	Outputs     []string
	Diagnostics []cerrors.Diagnostic
	// Cached is set when the outputs came from the render cache.
	Cached   bool
	Duration time.Duration
	Err      error
}

// Runner renders chart files. It is safe for concurrent use.
type Runner struct {
	opts          Options
	optionsDigest string

	charts *cache.ChartCache
	geos   *cache.GeometryCache

	blobs *cas.Store
	index *store.Store
}

// New creates a Runner. The layout configuration is validated up front.
func New(ctx context.Context, opts Options) (*Runner, error) {
	if opts.Format == "" {
		opts.Format = FormatSVG
	}
	if _, err := ParseFormat(string(opts.Format)); err != nil {
		return nil, err
	}
	if err := opts.Layout.Validate(); err != nil {
		return nil, cerrors.Wrap(err, "layout")
	}
	if opts.OutDir == "" {
		opts.OutDir = "."
	}

	r := &Runner{
		opts:          opts,
		optionsDigest: optionsKey(opts),
		charts:        cache.NewDefaultChartCache(),
		geos:          cache.NewDefaultGeometryCache(),
	}
	if opts.CacheDir != "" {
		blobs, err := cas.NewStore(filepath.Join(opts.CacheDir, "cas"))
		if err != nil {
			return nil, err
		}
		index, err := store.Open(ctx, IndexPath(opts.CacheDir))
		if err != nil {
			return nil, err
		}
		r.blobs, r.index = blobs, index
	}
	return r, nil
}

// IndexPath returns the render index file kept under cacheDir.
func IndexPath(cacheDir string) string {
	return filepath.Join(cacheDir, "renders.db")
}

// Close releases the render index.
func (r *Runner) Close() error {
	if r.index != nil {
		return r.index.Close()
	}
	return nil
}

// CacheStats returns the in-memory cache statistics.
func (r *Runner) CacheStats() (charts, geometry cache.Stats) {
	return r.charts.Stats(), r.geos.Stats()
}

// RenderFiles renders every path on the worker pool. Results keep the order
// of paths.
func (r *Runner) RenderFiles(ctx context.Context, paths []string) []Result {
	return Map(r.opts.Workers, paths, func(path string) Result {
		return r.RenderFile(ctx, path)
	})
}

// RenderFile renders one chart file. Failures are reported in Result.Err.
func (r *Runner) RenderFile(ctx context.Context, path string) Result {
	start := time.Now()
	res := Result{File: path, RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, res.RunID)
	ctx, run := telemetry.StartRun(ctx, path, string(r.opts.Format))
	defer run.Finish()

	entries, digest, err := r.render(ctx, run, path, &res)
	if err == nil {
		done := run.Stage("write")
		res.Outputs, err = r.write(path, res.Title, digest, entries)
		done()
	}
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		run.Fail(err)
		logging.RenderFailed(ctx, path, err)
		return res
	}
	logging.RenderComplete(ctx, path, string(r.opts.Format), res.Pages, res.Duration,
		"outputs", len(res.Outputs), "cached", res.Cached)
	return res
}

// Check compiles one chart file and reports its diagnostics without
// rendering it.
func (r *Runner) Check(ctx context.Context, path string) Result {
	start := time.Now()
	res := Result{File: path, RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, res.RunID)

	src, err := r.read(path)
	if err == nil {
		var compiled *cache.Compiled
		compiled, err = r.compile(ctx, path, src, cas.Blake3Hash([]byte(src)))
		if err == nil {
			res.Title = compiled.Chart.Title
			res.Diagnostics = compiled.Diagnostics
		}
	}
	res.Duration = time.Since(start)
	res.Err = err
	return res
}

// render produces the output entries for path, from the render cache when
// possible. It also returns the source digest.
func (r *Runner) render(ctx context.Context, run *telemetry.Run, path string, res *Result) ([]archive.Entry, string, error) {
	done := run.Stage("read")
	src, err := r.read(path)
	done()
	if err != nil {
		return nil, "", err
	}
	digest := cas.Blake3Hash([]byte(src))
	key := store.Key{Source: digest, Format: string(r.opts.Format), Layout: r.optionsDigest}

	if entries, rec := r.lookup(ctx, key); entries != nil {
		res.Title, res.Pages, res.Cached = rec.Title, rec.Pages, true
		res.Diagnostics = rec.Diagnostics
		for _, d := range rec.Diagnostics {
			logging.Diagnostic(ctx, path, d)
		}
		run.SetTag("cached", "true")
		return entries, digest, nil
	}

	done = run.Stage("compile")
	compiled, err := r.compile(ctx, path, src, digest)
	done()
	if err != nil {
		return nil, "", err
	}
	res.Title = compiled.Chart.Title
	res.Diagnostics = compiled.Diagnostics

	done = run.Stage("layout")
	gkey := cache.GeometryKey{Source: digest, Layout: r.optionsDigest}
	geo, hit := r.geos.Get(gkey)
	logging.CacheEvent(ctx, "geometry", hit)
	if !hit {
		geo = layout.Layout(compiled.Chart, r.opts.Layout, r.opts.Metrics)
		r.geos.Put(gkey, geo)
	}
	done()
	res.Pages = len(geo.Pages)

	done = run.Stage("emit")
	entries, err := emit(r.opts.Format, outputBase(path), geo)
	done()
	if err != nil {
		return nil, "", err
	}

	r.remember(ctx, key, res, entries)
	return entries, digest, nil
}

func (r *Runner) read(path string) (string, error) {
	src, err := validation.ReadSourceFile(path, r.opts.MaxSourceSize)
	if err != nil {
		return "", cerrors.NewIO("read", path, err)
	}
	return src, nil
}

// compile returns the compiled chart for src, logging its diagnostics.
func (r *Runner) compile(ctx context.Context, path, src, digest string) (*cache.Compiled, error) {
	compiled, hit := r.charts.Get(digest)
	logging.CacheEvent(ctx, "chart", hit)
	if !hit {
		c, diags, err := assemble.CompileWithOptions(src, r.opts.Compile)
		if err != nil {
			return nil, cerrors.Wrap(err, path)
		}
		compiled = &cache.Compiled{Chart: c, Diagnostics: diags}
		r.charts.Put(digest, compiled)
	}
	for _, d := range compiled.Diagnostics {
		logging.Diagnostic(ctx, path, d)
	}
	return compiled, nil
}

// lookup rebuilds the entries of a stored render. It returns nil when the
// render is unknown or one of its blobs has gone missing.
func (r *Runner) lookup(ctx context.Context, key store.Key) ([]archive.Entry, *store.Record) {
	if r.index == nil {
		return nil, nil
	}
	rec, ok, err := r.index.Lookup(ctx, key)
	if err != nil {
		logging.WarnContext(ctx, "render_cache_error", "key", key.String(), "error", err.Error())
		return nil, nil
	}
	logging.CacheEvent(ctx, "store", ok, "key", key.String())
	if !ok {
		return nil, nil
	}

	entries := make([]archive.Entry, 0, len(rec.Outputs))
	for _, o := range rec.Outputs {
		data, err := r.blobs.Get(o.BLAKE3)
		if err != nil {
			logging.WarnContext(ctx, "render_cache_stale", "key", key.String(), "blob", o.BLAKE3)
			return nil, nil
		}
		entries = append(entries, archive.Entry{Name: o.Name, Data: data})
	}
	return entries, rec
}

// remember stores a fresh render. Failures only cost a later cache miss.
func (r *Runner) remember(ctx context.Context, key store.Key, res *Result, entries []archive.Entry) {
	if r.index == nil {
		return
	}
	rec := &store.Record{Key: key, Title: res.Title, Pages: res.Pages, Diagnostics: res.Diagnostics}
	for _, e := range entries {
		d, err := r.blobs.Put(e.Data)
		if err != nil {
			logging.WarnContext(ctx, "render_cache_error", "key", key.String(), "error", err.Error())
			return
		}
		rec.Outputs = append(rec.Outputs, store.Output{Name: e.Name, BLAKE3: d.BLAKE3})
	}
	if err := r.index.Put(ctx, rec); err != nil {
		logging.WarnContext(ctx, "render_cache_error", "key", key.String(), "error", err.Error())
	}
}

// write stores entries under OutDir, or packs them into a bundle.
func (r *Runner) write(path, title, digest string, entries []archive.Entry) ([]string, error) {
	if err := os.MkdirAll(r.opts.OutDir, 0755); err != nil {
		return nil, cerrors.NewIO("mkdir", r.opts.OutDir, err)
	}

	if r.opts.Bundle {
		me, err := archive.NewManifest(title, digest, string(r.opts.Format), entries).Entry()
		if err != nil {
			return nil, err
		}
		dst, err := r.outPath(outputBase(path) + r.opts.Compression.Ext())
		if err != nil {
			return nil, err
		}
		all := append(append([]archive.Entry(nil), entries...), me)
		if err := archive.CreateBundle(dst, all); err != nil {
			return nil, cerrors.NewIO("bundle", dst, err)
		}
		return []string{dst}, nil
	}

	var out []string
	for _, e := range entries {
		dst, err := r.outPath(e.Name)
		if err != nil {
			return out, err
		}
		if err := os.WriteFile(dst, e.Data, 0644); err != nil {
			return out, cerrors.NewIO("write", dst, err)
		}
		out = append(out, dst)
	}
	return out, nil
}

// optionsKey digests everything besides the source that decides the
// rendered output.
func optionsKey(opts Options) string {
	return cas.Blake3Hash(fmt.Appendf(nil, "%s|%T|%s",
		config.Digest(opts.Layout), opts.Metrics, compileKey(opts.Compile)))
}

// compileKey digests the compile options. A nil quality table stands for
// the default one.
func compileKey(opts assemble.Options) string {
	q := opts.Qualities
	if q == nil {
		q = chart.DefaultQualities()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "max=%d", opts.Resolve.MaxMeasures)
	for _, tail := range q.Tails() {
		fmt.Fprintf(&b, "|%q=%q", tail, q[tail])
	}
	return cas.Blake3Hash([]byte(b.String()))
}

func (r *Runner) outPath(name string) (string, error) {
	rel, err := validation.SanitizePath(r.opts.OutDir, name)
	if err != nil {
		return "", err
	}
	return filepath.Join(r.opts.OutDir, rel), nil
}

// outputBase names the outputs of path after its file name.
func outputBase(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), validation.SourceExt)
	if name, err := validation.SanitizeFilename(base); err == nil {
		return name
	}
	return "chart"
}
