// Package runner drives a prune invocation end to end: it loads and
// compiles the rules, reads documents from files or stdin, applies the
// rules and writes the pruned documents and the run summary.
package runner

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jpcorreia/jsonprune/internal/config"
	"github.com/jpcorreia/jsonprune/internal/document"
	"github.com/jpcorreia/jsonprune/internal/exit"
	"github.com/jpcorreia/jsonprune/internal/output"
	"github.com/jpcorreia/jsonprune/internal/prune"
	"github.com/jpcorreia/jsonprune/internal/ratelimit"
	"github.com/jpcorreia/jsonprune/internal/rules"
)

const stdinName = "(stdin)"

// maxStreamLine bounds one NDJSON line; documents larger than this fail
// the line instead of the whole stream.
const maxStreamLine = 16 * 1024 * 1024

// Runner executes prune runs.
type Runner struct {
	config   *config.Config
	compiled []prune.CompiledRule
	limiter  *ratelimit.Limiter
	stdout   io.Writer
	stderr   io.Writer
}

// New creates a new Runner with the provided configuration, loading and
// compiling every rule source. If creation fails, returns nil runner and
// exit result.
func New(cfg *config.Config) (*Runner, *exit.Result) {
	var loaded []rules.Rule
	for _, file := range cfg.RuleFiles {
		fileRules, err := rules.LoadFile(file)
		if err != nil {
			return nil, exit.Errorf("Error loading rules: %v\n", err)
		}
		loaded = append(loaded, fileRules...)
	}
	loaded = append(loaded, rules.Inline(cfg.Queries)...)

	return &Runner{
		config:   cfg,
		compiled: prune.CompileRules(loaded),
		limiter:  ratelimit.New(cfg.Rate),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}, nil
}

// Run processes every input and reports the outcome. The returned value
// is the process exit code.
func (r *Runner) Run(ctx context.Context) int {
	out, closeOutput, exitResult := r.openOutput()
	if exitResult != nil {
		exitResult.Print()
		return exitResult.ExitCode
	}
	defer closeOutput()

	if r.config.Debug {
		r.debugPlans()
	}

	summary := output.NewSummary()

	if len(r.config.InputFiles) == 0 {
		r.processInput(ctx, summary, stdinName, os.Stdin, out)
	} else {
		for _, file := range r.config.InputFiles {
			if ctx.Err() != nil {
				break
			}
			f, err := os.Open(file)
			if err != nil {
				summary.Add(output.DocumentResult{Input: file, Error: err.Error()})
				continue
			}
			r.processInput(ctx, summary, file, f, out)
			f.Close()
		}
	}

	summary.Finish()

	if err := output.NewText(r.stderr).Format(summary); err != nil {
		fmt.Fprintf(r.stderr, "Error writing summary: %v\n", err)
	}
	if r.config.Report {
		if err := output.NewJSON(r.stderr).Format(summary); err != nil {
			fmt.Fprintf(r.stderr, "Error writing report: %v\n", err)
		}
	}

	if ctx.Err() != nil || !summary.Succeeded() {
		return 1
	}
	return 0
}

// openOutput returns the writer pruned documents go to.
func (r *Runner) openOutput() (io.Writer, func(), *exit.Result) {
	if r.config.OutputFile == "" {
		return r.stdout, func() {}, nil
	}
	f, err := os.Create(r.config.OutputFile)
	if err != nil {
		return nil, nil, exit.Errorf("Error creating output file: %v\n", err)
	}
	return f, func() { f.Close() }, nil
}

func (r *Runner) processInput(ctx context.Context, summary *output.Summary, name string, in io.Reader, out io.Writer) {
	if r.config.Stream {
		r.processStream(ctx, summary, name, in, out)
		return
	}

	start := time.Now()
	result := r.processDocument(name, in, out, r.formatFor(name))
	result.Duration = time.Since(start)
	summary.Add(result)
}

// processDocument decodes one whole document, prunes it and re-encodes
// it in the same format.
func (r *Runner) processDocument(name string, in io.Reader, out io.Writer, format document.Format) output.DocumentResult {
	result := output.DocumentResult{Input: name}

	doc, err := document.Decode(in, format)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Report = prune.Apply(doc, r.compiled, r.config.DryRun)
	if r.config.Debug {
		r.debugMatches(name, result.Report)
	}
	if r.config.DryRun {
		return result
	}

	encoded, err := r.encode(doc, format)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if _, err := out.Write(encoded); err != nil {
		result.Error = err.Error()
	}
	return result
}

// processStream handles newline-delimited JSON: each line is one
// document, pruned and re-emitted as one compact line. A malformed line
// fails alone; the stream keeps going.
func (r *Runner) processStream(ctx context.Context, summary *output.Summary, name string, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		if err := r.limiter.Wait(ctx); err != nil {
			summary.Add(output.DocumentResult{
				Input: fmt.Sprintf("%s:%d", name, lineNum),
				Error: err.Error(),
			})
			return
		}

		start := time.Now()
		result := r.processStreamLine(name, lineNum, line, out)
		result.Duration = time.Since(start)
		summary.Add(result)
	}

	if err := scanner.Err(); err != nil {
		summary.Add(output.DocumentResult{Input: name, Error: err.Error()})
	}
}

func (r *Runner) processStreamLine(name string, lineNum int, line []byte, out io.Writer) output.DocumentResult {
	result := output.DocumentResult{Input: fmt.Sprintf("%s:%d", name, lineNum)}

	doc, err := document.DecodeJSON(bytes.NewReader(line))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Report = prune.Apply(doc, r.compiled, r.config.DryRun)
	if r.config.DryRun {
		return result
	}

	encoded, err := document.EncodeJSON(doc, true)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if _, err := fmt.Fprintf(out, "%s\n", encoded); err != nil {
		result.Error = err.Error()
	}
	return result
}

// formatFor resolves the effective format of one input.
func (r *Runner) formatFor(name string) document.Format {
	switch r.config.Format {
	case config.FormatJSON:
		return document.FormatJSON
	case config.FormatYAML:
		return document.FormatYAML
	}
	if name == stdinName {
		return document.FormatJSON
	}
	return document.DetectFormat(name)
}

func (r *Runner) encode(doc any, format document.Format) ([]byte, error) {
	if format == document.FormatYAML {
		return document.EncodeYAML(doc)
	}
	encoded, err := document.EncodeJSON(doc, r.config.Compact)
	if err != nil {
		return nil, err
	}
	if !bytes.HasSuffix(encoded, []byte("\n")) {
		encoded = append(encoded, '\n')
	}
	return encoded, nil
}

// debugPlans dumps every compiled rule before the run starts.
func (r *Runner) debugPlans() {
	for i := range r.compiled {
		cr := &r.compiled[i]
		switch {
		case cr.Warning != "":
			fmt.Fprintf(r.stderr, "rule %q: disabled: %s\n", cr.Rule.Query, cr.Warning)
		case cr.Plan() != nil:
			fmt.Fprintf(r.stderr, "rule %q: plan %s\n", cr.Rule.Query, cr.Plan())
		default:
			fmt.Fprintf(r.stderr, "rule %q: standard jsonpath\n", cr.Rule.Query)
		}
	}
}

// debugMatches dumps the matched paths of one document.
func (r *Runner) debugMatches(name string, report prune.Report) {
	for _, rule := range report.Rules {
		for _, path := range rule.Matched {
			fmt.Fprintf(r.stderr, "%s: rule %q matched %s\n", name, rule.Query, path)
		}
	}
}
