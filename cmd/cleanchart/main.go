// Command cleanchart compiles chord chart sources into SVG or PDF charts.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/cleanchart/core/fontmetrics"
	"github.com/FocuswithJustin/cleanchart/core/layout"
	"github.com/FocuswithJustin/cleanchart/core/selfcheck"
	"github.com/FocuswithJustin/cleanchart/core/sqlite"
	"github.com/FocuswithJustin/cleanchart/internal/archive"
	"github.com/FocuswithJustin/cleanchart/internal/config"
	"github.com/FocuswithJustin/cleanchart/internal/logging"
	"github.com/FocuswithJustin/cleanchart/internal/render"
	"github.com/FocuswithJustin/cleanchart/internal/store"
	"github.com/FocuswithJustin/cleanchart/internal/telemetry"
	"github.com/FocuswithJustin/cleanchart/internal/validation"
)

const version = "0.1.0"

// Globals are the flags shared by every command.
type Globals struct {
	Config    kong.ConfigFlag `help:"JSON file with flag defaults" short:"c" placeholder:"FILE"`
	LogLevel  string          `name:"log-level" help:"Log level (debug, info, warn, error)" default:"info" env:"CLEANCHART_LOG_LEVEL"`
	LogFormat string          `name:"log-format" help:"Log format (text, json)" default:"text" env:"CLEANCHART_LOG_FORMAT"`
	SentryDSN string          `name:"sentry-dsn" help:"Report render runs to Sentry" env:"CLEANCHART_SENTRY_DSN"`

	out io.Writer `kong:"-"`
}

// Stdout returns the writer command output goes to.
func (g *Globals) Stdout() io.Writer {
	if g.out == nil {
		return os.Stdout
	}
	return g.out
}

// CLI defines the command-line interface for cleanchart.
type CLI struct {
	Globals

	Render    RenderCmd    `cmd:"" help:"Render chart files to SVG, PDF or draw operations"`
	Check     CheckCmd     `cmd:"" help:"Compile chart files and report diagnostics"`
	Selfcheck SelfcheckCmd `cmd:"" help:"Verify that rendering a chart is deterministic"`
	Bundle    BundleGroup  `cmd:"" help:"Inspect render bundles"`
	Cache     CacheGroup   `cmd:"" help:"Inspect the persistent render cache"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// LayoutFlags select and override the layout configuration.
type LayoutFlags struct {
	Layout         string `help:"JSON layout configuration" type:"path" env:"CLEANCHART_LAYOUT"`
	MeasuresPerRow int    `name:"measures-per-row" help:"Override measures per row"`
	Overflow       string `help:"Override the overflow policy (proportional, largest)"`
	GoFonts        bool   `name:"go-fonts" help:"Measure text with the embedded Go fonts instead of estimates"`
}

// load returns the layout config and text metrics the flags describe.
func (f *LayoutFlags) load() (layout.Config, layout.TextMetrics, error) {
	cfg, err := config.LoadLayout(f.Layout)
	if err != nil {
		return cfg, nil, err
	}
	if f.MeasuresPerRow != 0 {
		cfg.MeasuresPerRow = f.MeasuresPerRow
	}
	if f.Overflow != "" {
		if cfg.Overflow, err = layout.ParseOverflowPolicy(f.Overflow); err != nil {
			return cfg, nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	if !f.GoFonts {
		return cfg, nil, nil
	}
	m, err := fontmetrics.New()
	if err != nil {
		return cfg, nil, err
	}
	return cfg, m, nil
}

// RenderCmd renders chart files.
type RenderCmd struct {
	LayoutFlags

	Files       []string `arg:"" help:"Chart sources (.cchart)"`
	Format      string   `short:"f" help:"Output format (svg, pdf, ops)" default:"svg" env:"CLEANCHART_FORMAT"`
	Out         string   `short:"o" help:"Output directory" default:"." type:"path"`
	Bundle      bool     `help:"Pack each chart's files into a tar bundle with a manifest"`
	Compression string   `help:"Bundle compression (xz, gz)" default:"xz" enum:"xz,gz"`
	CacheDir    string   `name:"cache-dir" help:"Persistent render cache directory" type:"path" env:"CLEANCHART_CACHE_DIR"`
	Workers     int      `short:"j" help:"Files rendered in parallel (0 = one per CPU)" default:"0"`
}

func (c *RenderCmd) Run(g *Globals) error {
	format, err := render.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	cfg, metrics, err := c.load()
	if err != nil {
		return err
	}
	comp := archive.XZ
	if c.Compression == "gz" {
		comp = archive.Gzip
	}

	opts := render.DefaultOptions()
	opts.Format = format
	opts.OutDir = c.Out
	opts.Bundle = c.Bundle
	opts.Compression = comp
	opts.Layout = cfg
	opts.Metrics = metrics
	opts.CacheDir = c.CacheDir
	opts.Workers = c.Workers

	ctx := context.Background()
	r, err := render.New(ctx, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	failed := 0
	for _, res := range r.RenderFiles(ctx, c.Files) {
		if res.Err != nil {
			failed++
			fmt.Fprintf(g.Stdout(), "FAIL %s: %v\n", res.File, res.Err)
			continue
		}
		for _, d := range res.Diagnostics {
			fmt.Fprintf(g.Stdout(), "%s:%s\n", res.File, d)
		}
		for _, out := range res.Outputs {
			fmt.Fprintln(g.Stdout(), out)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d charts failed", failed, len(c.Files))
	}
	return nil
}

// CheckCmd compiles chart files without rendering them.
type CheckCmd struct {
	Files  []string `arg:"" help:"Chart sources (.cchart)"`
	Strict bool     `help:"Treat warnings as errors"`
}

func (c *CheckCmd) Run(g *Globals) error {
	r, err := render.New(context.Background(), render.DefaultOptions())
	if err != nil {
		return err
	}
	defer r.Close()

	bad := 0
	for _, path := range c.Files {
		res := r.Check(context.Background(), path)
		if res.Err != nil {
			bad++
			fmt.Fprintf(g.Stdout(), "%s: %v\n", path, res.Err)
			continue
		}
		for _, d := range res.Diagnostics {
			fmt.Fprintf(g.Stdout(), "%s:%s\n", path, d)
		}
		if c.Strict && len(res.Diagnostics) > 0 {
			bad++
			continue
		}
		fmt.Fprintf(g.Stdout(), "%s: ok (%s)\n", path, res.Title)
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d charts have errors", bad, len(c.Files))
	}
	return nil
}

// SelfcheckCmd runs the determinism self-check on one chart.
type SelfcheckCmd struct {
	LayoutFlags

	File string `arg:"" help:"Chart source (.cchart)"`
	Runs int    `help:"Number of renders to compare" default:"3"`
	JSON bool   `help:"Print the full JSON report"`
}

func (c *SelfcheckCmd) Run(g *Globals) error {
	src, err := validation.ReadSourceFile(c.File, 0)
	if err != nil {
		return err
	}
	cfg, metrics, err := c.load()
	if err != nil {
		return err
	}

	e := selfcheck.NewExecutor()
	e.Layout = cfg
	e.Metrics = metrics
	report, err := e.Execute(selfcheck.DeterminismPlan(c.Runs), src)
	if err != nil {
		return err
	}

	if c.JSON {
		data, err := report.ToJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(g.Stdout(), string(data))
	} else {
		for _, res := range report.Results {
			status := "PASS"
			if !res.Pass {
				status = "FAIL"
			}
			fmt.Fprintf(g.Stdout(), "%s %s %s", status, res.CheckType, res.Label)
			if res.Details != "" {
				fmt.Fprintf(g.Stdout(), ": %s", res.Details)
			}
			fmt.Fprintln(g.Stdout())
		}
		fmt.Fprintf(g.Stdout(), "%s: %d runs, %d pages, report %s\n", report.Status, report.Runs, report.Pages, report.Hash()[:12])
	}
	if report.Status != selfcheck.StatusPass {
		return fmt.Errorf("self-check failed: %d checks", len(report.Failed()))
	}
	return nil
}

// BundleGroup contains bundle operations.
type BundleGroup struct {
	List   BundleListCmd   `cmd:"" help:"List the files of a bundle"`
	Verify BundleVerifyCmd `cmd:"" help:"Check bundle files against the manifest"`
}

// BundleListCmd lists a bundle.
type BundleListCmd struct {
	Path string `arg:"" help:"Bundle (.tar.xz or .tar.gz)" type:"existingfile"`
	JSON bool   `help:"Print the manifest as JSON"`
}

func (c *BundleListCmd) Run(g *Globals) error {
	if c.JSON {
		m, err := archive.ReadManifest(c.Path)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(g.Stdout())
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}
	entries, err := archive.List(c.Path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(g.Stdout(), "%8d  %s\n", e.Size, e.Name)
	}
	return nil
}

// BundleVerifyCmd verifies a bundle.
type BundleVerifyCmd struct {
	Path string `arg:"" help:"Bundle (.tar.xz or .tar.gz)" type:"existingfile"`
}

func (c *BundleVerifyCmd) Run(g *Globals) error {
	m, err := archive.ReadManifest(c.Path)
	if err != nil {
		return err
	}
	if err := m.Verify(c.Path); err != nil {
		return err
	}
	fmt.Fprintf(g.Stdout(), "%s: %d files verified\n", c.Path, len(m.Files))
	return nil
}

// CacheGroup contains render cache operations.
type CacheGroup struct {
	List CacheListCmd `cmd:"" help:"List the renders held in a cache directory"`
}

// CacheListCmd lists cached renders, newest first.
type CacheListCmd struct {
	CacheDir string `name:"cache-dir" help:"Persistent render cache directory" type:"existingdir" required:"" env:"CLEANCHART_CACHE_DIR"`
}

func (c *CacheListCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := store.OpenReadOnly(ctx, render.IndexPath(c.CacheDir))
	if err != nil {
		return err
	}
	defer s.Close()

	recs, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		fmt.Fprintf(g.Stdout(), "%s  %s  %d page(s)  %s\n",
			rec.CreatedAt.Format(time.RFC3339), rec.Key, rec.Pages, rec.Title)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	info := sqlite.GetInfo()
	fmt.Fprintf(g.Stdout(), "cleanchart %s (%s, sqlite %s)\n", version, runtime.Version(), info.DriverType)
	return nil
}

// setup configures logging and telemetry from the global flags.
func setup(g *Globals) error {
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)

	enabled, err := telemetry.Init(telemetry.Config{DSN: g.SentryDSN, Release: "cleanchart@" + version})
	if err != nil {
		return err
	}
	if enabled {
		logging.Debug("telemetry enabled")
	}
	return nil
}

func newParser(cli *CLI) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("cleanchart"),
		kong.Description("Compile chord chart sources into printable charts"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Configuration(kong.JSON, "~/.config/cleanchart/config.json", ".cleanchart.json"),
		kong.Vars{"version": version},
	)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	parser.FatalIfErrorf(setup(&cli.Globals))

	err = ctx.Run(&cli.Globals)
	telemetry.Flush(2 * time.Second)
	ctx.FatalIfErrorf(err)
}
