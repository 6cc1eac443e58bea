package selfcheck

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	cerrors "github.com/FocuswithJustin/cleanchart/core/errors"
)

const chartSource = `Title: Autumn Leaves
Composer: Kosma
Key: Gm
Time: 4/4

[A]
= <<*Rubato* >>"with feel"
(Cm7 F7 Bbmaj7 Ebmaj7 1. Am7b5 D7 2. Am7b5 D7 Gm) 2x
`

func fixedNow() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

func TestDeterminismPlanPasses(t *testing.T) {
	e := NewExecutor()
	e.Now = fixedNow

	report, err := e.Execute(DeterminismPlan(3), chartSource)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if report.Status != StatusPass {
		t.Fatalf("Status = %s, failed: %+v", report.Status, report.Failed())
	}
	if report.Runs != 3 || report.Pages != 1 {
		t.Errorf("Runs = %d, Pages = %d", report.Runs, report.Pages)
	}
	// Three digest checks plus two checks per page.
	if len(report.Results) != 5 {
		t.Errorf("got %d results, want 5", len(report.Results))
	}
	if report.CreatedAt != "2026-03-01T12:00:00Z" {
		t.Errorf("CreatedAt = %s", report.CreatedAt)
	}
	if len(report.Source.BLAKE3) != 64 {
		t.Errorf("Source digest = %q", report.Source.BLAKE3)
	}
}

func TestDeterminismPlanMinimumRuns(t *testing.T) {
	if p := DeterminismPlan(0); p.Runs != 2 {
		t.Errorf("Runs = %d, want 2", p.Runs)
	}
}

func TestExecuteMultiPage(t *testing.T) {
	var b strings.Builder
	b.WriteString("Title: Long Form\n")
	for i := 0; i < 30; i++ {
		b.WriteString("C Am F G\n")
	}

	e := NewExecutor()
	report, err := e.Execute(DeterminismPlan(2), b.String())
	if err != nil {
		t.Fatal(err)
	}
	if report.Pages < 2 {
		t.Fatalf("Pages = %d, want at least 2", report.Pages)
	}
	if report.Status != StatusPass {
		t.Errorf("failed: %+v", report.Failed())
	}
	if len(report.Results) != 3+2*report.Pages {
		t.Errorf("got %d results for %d pages", len(report.Results), report.Pages)
	}
}

func TestExecuteCompileError(t *testing.T) {
	_, err := NewExecutor().Execute(DeterminismPlan(2), "Composer: nobody\nC\n")
	if err == nil {
		t.Fatal("Execute() should fail without a title")
	}
	if !strings.Contains(err.Error(), "run 1") {
		t.Errorf("error = %v", err)
	}
	if !errors.Is(err, cerrors.ErrValidation) {
		t.Errorf("error = %v, want a validation error", err)
	}
}

func TestExecuteUnknownCheck(t *testing.T) {
	plan := &Plan{ID: "x", Runs: 1, Checks: []string{"NOPE"}}
	_, err := NewExecutor().Execute(plan, chartSource)
	if !errors.Is(err, cerrors.ErrUnsupported) {
		t.Errorf("Execute() error = %v, want ErrUnsupported", err)
	}
	if err != nil && !strings.Contains(err.Error(), "NOPE") {
		t.Errorf("error = %v", err)
	}
}

func TestDigestsEqualDetectsDifference(t *testing.T) {
	runs := []run{{pdf: []byte("a")}, {pdf: []byte("a")}, {pdf: []byte("b")}}
	res := digestsEqual(CheckPDFByteEqual, "pdf", runs, func(r run) string { return string(r.pdf) })
	if res.Pass {
		t.Fatal("differing runs should fail")
	}
	if res.Details != "run 3 differs from run 1" {
		t.Errorf("Details = %q", res.Details)
	}
	if res.Expected.BLAKE3 != "a" || res.Actual.BLAKE3 != "b" {
		t.Errorf("Expected/Actual = %v/%v", res.Expected, res.Actual)
	}
}

func TestPageChecksMalformed(t *testing.T) {
	e := NewExecutor()
	r, err := e.render(chartSource)
	if err != nil {
		t.Fatal(err)
	}
	r.svgs = append(r.svgs, []byte("<svg"))
	res := pageChecks(CheckSVGWellFormed, r, false)
	if len(res) != 2 || !res[0].Pass || res[1].Pass {
		t.Errorf("results = %+v", res)
	}
}

func TestReportJSONAndHash(t *testing.T) {
	e := NewExecutor()
	e.Now = fixedNow
	a, err := e.Execute(DeterminismPlan(2), chartSource)
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Execute(DeterminismPlan(2), chartSource)
	if err != nil {
		t.Fatal(err)
	}
	if a.Hash() != b.Hash() {
		t.Error("identical reports should hash identically")
	}

	data, err := a.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["status"] != StatusPass || decoded["plan_id"] != "determinism" {
		t.Errorf("decoded = %v", decoded)
	}
}
