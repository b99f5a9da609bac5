package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jpcorreia/jsonprune/internal/config"
	"github.com/jpcorreia/jsonprune/internal/prune"
	"github.com/jpcorreia/jsonprune/internal/ratelimit"
	"github.com/jpcorreia/jsonprune/internal/rules"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func newTestRunner(cfg *config.Config, queries ...string) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	r := &Runner{
		config:   cfg,
		compiled: prune.CompileRules(rules.Inline(queries)),
		limiter:  ratelimit.New(cfg.Rate),
		stdout:   &stdout,
		stderr:   &stderr,
	}
	return r, &stdout, &stderr
}

func TestRun_PrunesFile(t *testing.T) {
	input := writeFile(t, "data.json", `{"user": "amy", "password": "x"}`)
	cfg := &config.Config{
		InputFiles: []string{input},
		Format:     config.FormatAuto,
		Compact:    true,
	}
	r, stdout, stderr := newTestRunner(cfg, "$..password")

	if code := r.Run(context.Background()); code != 0 {
		t.Fatalf("Run() = %d, want 0\nstderr: %s", code, stderr.String())
	}
	if got := stdout.String(); got != "{\"user\":\"amy\"}\n" {
		t.Errorf("pruned output = %q", got)
	}
	if !strings.Contains(stderr.String(), "1 matched, 1 removed") {
		t.Errorf("summary missing counts: %s", stderr.String())
	}
}

func TestRun_YAMLFile(t *testing.T) {
	input := writeFile(t, "config.yaml", "user: amy\npassword: x\n")
	cfg := &config.Config{
		InputFiles: []string{input},
		Format:     config.FormatAuto,
	}
	r, stdout, stderr := newTestRunner(cfg, "$.password")

	if code := r.Run(context.Background()); code != 0 {
		t.Fatalf("Run() = %d, want 0\nstderr: %s", code, stderr.String())
	}
	if got := stdout.String(); got != "user: amy\n" {
		t.Errorf("pruned output = %q", got)
	}
}

func TestRun_DryRun(t *testing.T) {
	input := writeFile(t, "data.json", `{"password": "x"}`)
	cfg := &config.Config{
		InputFiles: []string{input},
		Format:     config.FormatAuto,
		DryRun:     true,
	}
	r, stdout, stderr := newTestRunner(cfg, "$.password")

	if code := r.Run(context.Background()); code != 0 {
		t.Fatalf("Run() = %d, want 0\nstderr: %s", code, stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("dry run wrote output: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "1 matched, 0 removed") {
		t.Errorf("summary missing dry-run counts: %s", stderr.String())
	}
}

func TestRun_Stream(t *testing.T) {
	input := writeFile(t, "events.ndjson",
		`{"msg": "a", "trace": 1}`+"\n"+
			"\n"+
			`{"msg": "b", "trace": 2}`+"\n")
	cfg := &config.Config{
		InputFiles: []string{input},
		Format:     config.FormatAuto,
		Stream:     true,
	}
	r, stdout, stderr := newTestRunner(cfg, "$.trace")

	if code := r.Run(context.Background()); code != 0 {
		t.Fatalf("Run() = %d, want 0\nstderr: %s", code, stderr.String())
	}
	want := "{\"msg\":\"a\"}\n{\"msg\":\"b\"}\n"
	if got := stdout.String(); got != want {
		t.Errorf("stream output = %q, want %q", got, want)
	}
}

func TestRun_StreamBadLineContinues(t *testing.T) {
	input := writeFile(t, "events.ndjson",
		`{"a": 1}`+"\n"+
			"not json\n"+
			`{"a": 2}`+"\n")
	cfg := &config.Config{
		InputFiles: []string{input},
		Format:     config.FormatAuto,
		Stream:     true,
	}
	r, stdout, stderr := newTestRunner(cfg, "$.a")

	if code := r.Run(context.Background()); code != 1 {
		t.Fatalf("Run() = %d, want 1 for a failed line\nstderr: %s", code, stderr.String())
	}
	// both good lines still made it through
	if got := stdout.String(); got != "{}\n{}\n" {
		t.Errorf("stream output = %q", got)
	}
	if !strings.Contains(stderr.String(), ":2: failed") {
		t.Errorf("summary missing failed line: %s", stderr.String())
	}
}

func TestRun_MissingInputFile(t *testing.T) {
	cfg := &config.Config{
		InputFiles: []string{filepath.Join(t.TempDir(), "absent.json")},
		Format:     config.FormatAuto,
	}
	r, _, stderr := newTestRunner(cfg, "$.a")

	if code := r.Run(context.Background()); code != 1 {
		t.Fatalf("Run() = %d, want 1\nstderr: %s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "1 failed") {
		t.Errorf("summary missing failure: %s", stderr.String())
	}
}

func TestRun_OutputFile(t *testing.T) {
	input := writeFile(t, "data.json", `{"drop": 1, "keep": 2}`)
	outPath := filepath.Join(t.TempDir(), "out.json")
	cfg := &config.Config{
		InputFiles: []string{input},
		Format:     config.FormatAuto,
		Compact:    true,
		OutputFile: outPath,
	}
	r, stdout, stderr := newTestRunner(cfg, "$.drop")

	if code := r.Run(context.Background()); code != 0 {
		t.Fatalf("Run() = %d, want 0\nstderr: %s", code, stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout not empty with -output: %q", stdout.String())
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got := string(data); got != "{\"keep\":2}\n" {
		t.Errorf("output file = %q", got)
	}
}

func TestRun_Report(t *testing.T) {
	input := writeFile(t, "data.json", `{"a": 1}`)
	cfg := &config.Config{
		InputFiles: []string{input},
		Format:     config.FormatAuto,
		Report:     true,
	}
	r, _, stderr := newTestRunner(cfg, "$.a")

	if code := r.Run(context.Background()); code != 0 {
		t.Fatalf("Run() = %d, want 0\nstderr: %s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), `"run_id"`) {
		t.Errorf("stderr missing JSON report: %s", stderr.String())
	}
}

func TestRun_Debug(t *testing.T) {
	input := writeFile(t, "data.json", `{"password": "x"}`)
	cfg := &config.Config{
		InputFiles: []string{input},
		Format:     config.FormatAuto,
		Debug:      true,
	}
	r, _, stderr := newTestRunner(cfg, "$..password")

	if code := r.Run(context.Background()); code != 0 {
		t.Fatalf("Run() = %d, want 0\nstderr: %s", code, stderr.String())
	}
	got := stderr.String()
	if !strings.Contains(got, "plan") {
		t.Errorf("debug output missing plan dump: %s", got)
	}
	if !strings.Contains(got, "matched $['password']") {
		t.Errorf("debug output missing match: %s", got)
	}
}

func TestNew_LoadsRuleFiles(t *testing.T) {
	ruleFile := writeFile(t, "rules.yaml", "- query: $..password\n- query: $.debug\n")
	cfg := &config.Config{
		RuleFiles: []string{ruleFile},
		Queries:   []string{"$.extra"},
		Format:    config.FormatAuto,
	}

	r, exitResult := New(cfg)
	if exitResult != nil {
		t.Fatalf("New() exit result = %+v", exitResult)
	}
	if len(r.compiled) != 3 {
		t.Errorf("compiled %d rules, want 3", len(r.compiled))
	}
}

func TestNew_BadRuleFile(t *testing.T) {
	ruleFile := writeFile(t, "rules.yaml", "- description: missing query\n")
	cfg := &config.Config{
		RuleFiles: []string{ruleFile},
		Format:    config.FormatAuto,
	}

	r, exitResult := New(cfg)
	if r != nil || exitResult == nil {
		t.Fatalf("New() = %v, %v, want nil runner and exit result", r, exitResult)
	}
	if exitResult.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", exitResult.ExitCode)
	}
}
