// Package selfcheck verifies that compiling, laying out and emitting a
// chart is deterministic and that every rendered page is sound.
package selfcheck

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/FocuswithJustin/cleanchart/core/assemble"
	"github.com/FocuswithJustin/cleanchart/core/canvas"
	"github.com/FocuswithJustin/cleanchart/core/cas"
	cerrors "github.com/FocuswithJustin/cleanchart/core/errors"
	"github.com/FocuswithJustin/cleanchart/core/layout"
	"github.com/FocuswithJustin/cleanchart/core/pdf"
	"github.com/FocuswithJustin/cleanchart/core/svg"
	cxml "github.com/FocuswithJustin/cleanchart/core/xml"
)

// Version is the report format version.
const Version = "1.0.0"

// Status values for reports.
const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// Check types.
const (
	CheckOpsEqual      = "OPS_EQUAL"
	CheckSVGByteEqual  = "SVG_BYTE_EQUAL"
	CheckPDFByteEqual  = "PDF_BYTE_EQUAL"
	CheckSVGWellFormed = "SVG_WELL_FORMED"
	CheckSVGTextCount  = "SVG_TEXT_COUNT"
)

// DefaultRuns is how many times a plan renders the chart.
const DefaultRuns = 3

// Plan describes one self-check.
type Plan struct {
	ID     string   `json:"id"`
	Runs   int      `json:"runs"`
	Checks []string `json:"checks"`
}

// DeterminismPlan runs every check over runs renders.
func DeterminismPlan(runs int) *Plan {
	if runs < 2 {
		runs = 2
	}
	return &Plan{
		ID:   "determinism",
		Runs: runs,
		Checks: []string{
			CheckOpsEqual,
			CheckSVGByteEqual,
			CheckPDFByteEqual,
			CheckSVGWellFormed,
			CheckSVGTextCount,
		},
	}
}

// Report is the output of a self-check execution.
type Report struct {
	ReportVersion string        `json:"report_version"`
	CreatedAt     string        `json:"created_at"`
	PlanID        string        `json:"plan_id"`
	Source        *HashInfo     `json:"source"`
	Runs          int           `json:"runs"`
	Pages         int           `json:"pages"`
	Results       []CheckResult `json:"results"`
	Status        string        `json:"status"`
}

// CheckResult is the result of a single check.
type CheckResult struct {
	CheckType string    `json:"check_type"`
	Label     string    `json:"label"`
	Pass      bool      `json:"pass"`
	Expected  *HashInfo `json:"expected,omitempty"`
	Actual    *HashInfo `json:"actual,omitempty"`
	Details   string    `json:"details,omitempty"`
}

// HashInfo contains hash information for comparison.
type HashInfo struct {
	BLAKE3 string `json:"blake3,omitempty"`
}

// ToJSON serializes the report to JSON.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Hash returns the BLAKE3 digest of the report.
func (r *Report) Hash() string {
	data, _ := json.Marshal(r)
	return cas.Blake3Hash(data)
}

// Failed returns the results that did not pass.
func (r *Report) Failed() []CheckResult {
	var out []CheckResult
	for _, res := range r.Results {
		if !res.Pass {
			out = append(out, res)
		}
	}
	return out
}

// Executor renders a chart source repeatedly and checks the results.
type Executor struct {
	Compile assemble.Options
	Layout  layout.Config
	Metrics layout.TextMetrics
	Now     func() time.Time
}

// NewExecutor creates an executor with default compile and layout options.
func NewExecutor() *Executor {
	return &Executor{
		Compile: assemble.DefaultOptions(),
		Layout:  layout.DefaultConfig(),
		Now:     time.Now,
	}
}

// run is the output of one render.
type run struct {
	ops  *canvas.Recorder
	svgs [][]byte
	pdf  []byte
}

// Execute runs plan against src. A compile error aborts the check, since
// there is nothing to compare.
func (e *Executor) Execute(plan *Plan, src string) (*Report, error) {
	runs := plan.Runs
	if runs < 1 {
		runs = 1
	}

	var out []run
	for i := 0; i < runs; i++ {
		r, err := e.render(src)
		if err != nil {
			return nil, cerrors.Wrapf(err, "run %d", i+1)
		}
		out = append(out, r)
	}

	var results []CheckResult
	for _, check := range plan.Checks {
		res, err := e.executeCheck(check, out)
		if err != nil {
			return nil, cerrors.Wrap(err, "check failed")
		}
		results = append(results, res...)
	}

	status := StatusPass
	for _, r := range results {
		if !r.Pass {
			status = StatusFail
			break
		}
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	return &Report{
		ReportVersion: Version,
		CreatedAt:     now().UTC().Format(time.RFC3339),
		PlanID:        plan.ID,
		Source:        &HashInfo{BLAKE3: cas.Blake3Hash([]byte(src))},
		Runs:          runs,
		Pages:         len(out[0].svgs),
		Results:       results,
		Status:        status,
	}, nil
}

func (e *Executor) render(src string) (run, error) {
	c, _, err := assemble.CompileWithOptions(src, e.Compile)
	if err != nil {
		return run{}, err
	}
	geo := layout.Layout(c, e.Layout, e.Metrics)

	rec := canvas.NewRecorder()
	sc := svg.New(geo.FontFamily)
	pc := pdf.New(geo.Title, geo.FontFamily)
	canvas.Emit(geo, canvas.Tee(rec, sc, pc))

	doc, err := pc.Bytes()
	if err != nil {
		return run{}, err
	}
	return run{ops: rec, svgs: sc.Documents(), pdf: doc}, nil
}

func (e *Executor) executeCheck(check string, runs []run) ([]CheckResult, error) {
	switch check {
	case CheckOpsEqual:
		return []CheckResult{digestsEqual(check, "draw operations", runs, func(r run) string {
			return r.ops.Digest()
		})}, nil
	case CheckSVGByteEqual:
		return []CheckResult{digestsEqual(check, "svg pages", runs, func(r run) string {
			return cas.Blake3Hash(bytes.Join(r.svgs, nil))
		})}, nil
	case CheckPDFByteEqual:
		return []CheckResult{digestsEqual(check, "pdf document", runs, func(r run) string {
			return cas.Blake3Hash(r.pdf)
		})}, nil
	case CheckSVGWellFormed:
		return pageChecks(check, runs[0], false), nil
	case CheckSVGTextCount:
		return pageChecks(check, runs[0], true), nil
	default:
		return nil, cerrors.NewUnsupported("check type", check)
	}
}

// digestsEqual compares every run against the first.
func digestsEqual(check, label string, runs []run, digest func(run) string) CheckResult {
	want := digest(runs[0])
	res := CheckResult{
		CheckType: check,
		Label:     label,
		Pass:      true,
		Expected:  &HashInfo{BLAKE3: want},
		Actual:    &HashInfo{BLAKE3: want},
	}
	for i, r := range runs[1:] {
		if got := digest(r); got != want {
			res.Pass = false
			res.Actual = &HashInfo{BLAKE3: got}
			res.Details = fmt.Sprintf("run %d differs from run 1", i+2)
			break
		}
	}
	return res
}

// pageChecks inspects every SVG page of r. With counts set it also
// compares the number of <text> elements to the recorded text operations.
func pageChecks(check string, r run, counts bool) []CheckResult {
	pages := r.ops.PageOps()
	var out []CheckResult
	for i, doc := range r.svgs {
		res := CheckResult{CheckType: check, Label: fmt.Sprintf("page %d", i+1), Pass: true}
		s, err := cxml.InspectSVG(doc)
		switch {
		case err != nil:
			res.Pass = false
			res.Details = err.Error()
		case counts:
			want := 0
			if i < len(pages) {
				for _, op := range pages[i] {
					if op.Kind == canvas.OpText {
						want++
					}
				}
			}
			if len(s.Texts) != want {
				res.Pass = false
				res.Details = fmt.Sprintf("%d <text> elements for %d text operations", len(s.Texts), want)
			}
		}
		out = append(out, res)
	}
	return out
}
