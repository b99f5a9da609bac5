package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jpcorreia/jsonprune/internal/exit"
)

var (
	ErrNoArguments     = errors.New("no arguments provided")
	ErrNoRules         = errors.New("no rules specified, use -rules or -query")
	ErrInvalidFormat   = errors.New("format must be auto, json or yaml")
	ErrStreamNotJSON   = errors.New("stream mode reads newline-delimited JSON, yaml output is not supported")
	ErrRateNeedsStream = errors.New("-rate only applies to stream mode, use it with -stream")
	ErrTooManyOutputs  = errors.New("-output requires a single input file or stdin")
)

// Format selection for decoding input and encoding pruned output.
const (
	FormatAuto = "auto"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config represents the complete configuration for the jsonprune tool.
type Config struct {
	// Inputs; empty means stdin.
	InputFiles []string

	// Rule sources
	RuleFiles []string
	Queries   []string // inline dialect queries

	// Behavior
	DryRun bool
	Stream bool    // newline-delimited JSON, one document per line
	Rate   float64 // documents per second in stream mode (0 = unlimited)

	// Output
	Format     string // auto, json or yaml
	Compact    bool
	OutputFile string // empty means stdout
	Report     bool   // emit a JSON run report to stderr
	Debug      bool
}

// stringListFlag implements flag.Value for flags that may repeat.
type stringListFlag []string

func (s *stringListFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringListFlag) Set(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("value cannot be empty")
	}
	*s = append(*s, value)
	return nil
}

// Parse parses command-line arguments and returns a validated Config.
// If parsing fails or help is requested, returns nil config and exit result.
func Parse(args []string) (*Config, *exit.Result) {
	if len(args) == 0 {
		return nil, exit.Errorf("Error: %v\n\n%s", ErrNoArguments, Usage())
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)

	// Suppress default usage and error output, both are handled here
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)

	var (
		ruleFiles  stringListFlag
		queries    stringListFlag
		dryRun     = fs.Bool("dry-run", false, "Report matches without removing anything")
		stream     = fs.Bool("stream", false, "Treat input as newline-delimited JSON, one document per line")
		rate       = fs.Float64("rate", 0, "Documents per second in stream mode (0 for unlimited)")
		format     = fs.String("format", FormatAuto, "Input/output format: auto, json or yaml")
		compact    = fs.Bool("compact", false, "Emit compact JSON output")
		outputFile = fs.String("output", "", "Write pruned output to a file instead of stdout")
		report     = fs.Bool("report", false, "Emit a JSON run report to stderr")
		debug      = fs.Bool("debug", false, "Enable debug output showing compiled plans and per-rule matches")
	)

	fs.Var(&ruleFiles, "rules", "Path to a YAML rule file (can be used multiple times)")
	fs.Var(&queries, "query", "Inline dialect query to prune (can be used multiple times)")

	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, exit.Success(Usage())
		}
		return nil, exit.Errorf("Error: failed to parse arguments: %v\n\n%s", err, Usage())
	}

	config := &Config{
		InputFiles: fs.Args(),
		RuleFiles:  ruleFiles,
		Queries:    queries,
		DryRun:     *dryRun,
		Stream:     *stream,
		Rate:       *rate,
		Format:     *format,
		Compact:    *compact,
		OutputFile: *outputFile,
		Report:     *report,
		Debug:      *debug,
	}

	if err := config.Validate(); err != nil {
		return nil, exit.Errorf("Error: %v\n\n%s", err, Usage())
	}

	return config, nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if len(c.RuleFiles) == 0 && len(c.Queries) == 0 {
		return ErrNoRules
	}

	for _, file := range c.RuleFiles {
		if _, err := os.Stat(file); err != nil {
			return fmt.Errorf("rule file %s not found: %w", file, err)
		}
	}

	for _, file := range c.InputFiles {
		if _, err := os.Stat(file); err != nil {
			return fmt.Errorf("input file %s not found: %w", file, err)
		}
	}

	switch c.Format {
	case FormatAuto, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w, got: %s", ErrInvalidFormat, c.Format)
	}

	if c.Stream && c.Format == FormatYAML {
		return ErrStreamNotJSON
	}

	if c.Rate > 0 && !c.Stream {
		return ErrRateNeedsStream
	}

	if c.OutputFile != "" && len(c.InputFiles) > 1 {
		return ErrTooManyOutputs
	}

	return nil
}

// Usage returns a usage string for the CLI tool.
func Usage() string {
	return `jsonprune - remove matching nodes from JSON and YAML documents

Usage: jsonprune [options] [file1 file2 ...]

Reads documents from the given files, or stdin when none are given,
applies the prune rules and writes the pruned documents back out.

Options:
  --rules FILE     Path to a YAML rule file (can be used multiple times)
  --query QUERY    Inline dialect query to prune (can be used multiple times)
  --dry-run        Report matches without removing anything
  --stream         Treat input as newline-delimited JSON, one document per line
  --rate N         Documents per second in stream mode (0 for unlimited)
  --format FORMAT  Input/output format: auto, json or yaml (default: auto)
  --compact        Emit compact JSON output
  --output FILE    Write pruned output to a file instead of stdout
  --report         Emit a JSON run report to stderr
  --debug          Show compiled plans and per-rule matches on stderr
  -h, --help       Show this help message

Examples:
  jsonprune --query '$..password' data.json       # Strip every password key
  jsonprune --rules prune.yaml data.json          # Apply a rule file
  jsonprune --rules prune.yaml --dry-run data.json
  jsonprune --query '$.debug' --format yaml cfg.yaml
  cat events.ndjson | jsonprune --stream --query '$..trace' --rate 100`
}
