package main

import (
	"bytes"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/mmiogen/errors"
	"github.com/wippyai/mmiogen/generator"
)

var (
	diagStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	posStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

func main() {
	var (
		dir         = flag.String("dir", ".", "Package directory")
		types       = flag.String("type", "", "Comma-separated block names (default: every block)")
		output      = flag.String("o", "", "Output file (default: <package>_mmio.go)")
		arch        = flag.String("arch", "", "Target GOARCH (default: $GOARCH)")
		tags        = flag.String("tags", "", "Comma-separated build tags used to select files")
		constraint  = flag.String("constraint", "", "Build constraint written to the output")
		verbose     = flag.Bool("v", false, "Verbose logging")
		check       = flag.Bool("check", false, "Validate and summarize without writing; fail if the output is stale")
		interactive = flag.Bool("i", false, "Interactive inspector with TUI")
	)
	flag.Parse()

	log, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mmiogen: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	generator.SetLogger(log)

	cfg := generator.Config{
		Dir:        *dir,
		Types:      splitList(*types),
		Output:     *output,
		Arch:       *arch,
		Tags:       splitList(*tags),
		Constraint: *constraint,
		Command:    commandLine(os.Args[1:]),
	}

	switch {
	case *interactive:
		err = runInteractive(cfg)
	case *check:
		err = runCheck(os.Stdout, cfg)
	default:
		_, err = generator.Run(cfg)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, formatDiagnostic(err, term.IsTerminal(int(os.Stderr.Fd()))))
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// commandLine renders the flags that shape the output, for the generated header.
func commandLine(args []string) string {
	var kept []string
	for _, arg := range args {
		switch strings.TrimLeft(arg, "-") {
		case "v", "i", "check":
			continue
		}
		kept = append(kept, arg)
	}
	return strings.Join(kept, " ")
}

// formatDiagnostic renders err as file:line:col: mmiogen: message.
func formatDiagnostic(err error, color bool) string {
	prefix := "mmiogen:"
	if color {
		prefix = diagStyle.Render(prefix)
	}

	var e *errors.Error
	if stderrors.As(err, &e) && e.Pos.IsValid() {
		pos := e.Pos.String()
		if color {
			pos = posStyle.Render(pos)
		}
		return pos + ": " + prefix + " " + err.Error()
	}
	return prefix + " " + err.Error()
}

// runCheck validates the package, prints a summary per block and fails when
// the output file on disk differs from what would be generated.
func runCheck(w io.Writer, cfg generator.Config) error {
	res, err := generator.Generate(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, summarize(res))

	old, err := os.ReadFile(res.Output)
	switch {
	case err != nil:
		return fmt.Errorf("%s is missing: %w", res.Output, err)
	case !bytes.Equal(old, res.Source):
		return fmt.Errorf("%s is stale; run go generate", res.Output)
	}
	fmt.Fprintf(w, "%s is up to date\n", res.Output)
	return nil
}

func summarize(res *generator.Result) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("BLOCK", "SIZE", "ALIGN", "FIELDS", "METHODS", "SENDABLE").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, w := range res.Wrappers {
		b := w.Block
		t.Row(
			b.Name,
			strconv.FormatUint(uint64(b.Size), 10),
			strconv.FormatUint(uint64(b.Align), 10),
			strconv.Itoa(len(b.Accessible())),
			strconv.Itoa(len(w.Methods)),
			strconv.FormatBool(w.Sendable),
		)
	}
	return fmt.Sprintf("package %s (%s)\n%s", res.Set.Package, res.Set.Arch, t.String())
}
