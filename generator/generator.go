package generator

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"

	"github.com/wippyai/mmiogen/emit"
	"github.com/wippyai/mmiogen/errors"
	"github.com/wippyai/mmiogen/schema"
	"github.com/wippyai/mmiogen/source"
	"github.com/wippyai/mmiogen/synth"
)

// Config configures one generator run.
type Config struct {
	// Dir is the package directory; defaults to ".".
	Dir string
	// Types restricts generation to these blocks and the blocks nested in them.
	Types []string
	// Output is the generated file; defaults to <package>_mmio.go in Dir.
	Output string
	// Arch is the target GOARCH; defaults to $GOARCH, then runtime.GOARCH.
	Arch string
	// Tags are extra build tags used to select source files.
	Tags []string
	// Constraint is written to the output as a //go:build line.
	Constraint string
	// Command is recorded in the generated header.
	Command string
}

func (c Config) withDefaults() Config {
	if c.Dir == "" {
		c.Dir = "."
	}
	if c.Arch == "" {
		c.Arch = os.Getenv("GOARCH")
	}
	if c.Arch == "" {
		c.Arch = runtime.GOARCH
	}
	return c
}

// Result is the outcome of a run.
type Result struct {
	Set      *schema.Set
	Wrappers []*synth.Wrapper
	Output   string
	Source   []byte
}

// Analyze validates the blocks of pkg and synthesizes wrappers for the selected ones.
func Analyze(pkg schema.RawPackage, arch string, types []string) (*schema.Set, []*synth.Wrapper, error) {
	log := Logger()

	set, err := schema.Parse(pkg)
	if err != nil {
		return nil, nil, err
	}
	if len(set.Blocks) == 0 {
		return nil, nil, errors.New(errors.PhaseLoad, errors.KindNotFound).
			Detail("package %s has no %s declarations", pkg.Name, source.Directive).Build()
	}
	set.Arch = arch
	if err := schema.Validate(set); err != nil {
		return nil, nil, err
	}

	selected, err := selectBlocks(set, types)
	if err != nil {
		return nil, nil, err
	}

	wrappers := make([]*synth.Wrapper, 0, len(selected))
	for _, b := range selected {
		w, err := synth.Synthesize(b)
		if err != nil {
			return nil, nil, err
		}
		log.Debug("synthesized block",
			zap.String("block", b.Name),
			zap.Int("fields", len(b.Fields)),
			zap.Uint32("size", b.Size),
			zap.Int("methods", len(w.Methods)),
			zap.Bool("sendable", w.Sendable),
		)
		wrappers = append(wrappers, w)
	}
	return set, wrappers, nil
}

// selectBlocks returns the named blocks plus everything nested in them, in
// declaration order. No names selects every block.
func selectBlocks(set *schema.Set, names []string) ([]*schema.Block, error) {
	if len(names) == 0 {
		return set.Blocks, nil
	}

	keep := make(map[*schema.Block]bool)
	var mark func(b *schema.Block)
	mark = func(b *schema.Block) {
		if keep[b] {
			return
		}
		keep[b] = true
		for _, f := range b.Fields {
			if f.Target != nil && !f.Skip {
				mark(f.Target)
			}
		}
	}
	for _, name := range names {
		b := set.Lookup(name)
		if b == nil {
			return nil, errors.New(errors.PhaseLoad, errors.KindNotFound).
				Value(name).
				Detail("no %s declaration named %s", source.Directive, name).Build()
		}
		mark(b)
	}

	var out []*schema.Block
	for _, b := range set.Blocks {
		if keep[b] {
			out = append(out, b)
		}
	}
	return out, nil
}

// Generate runs the pipeline without writing the output.
func Generate(cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	log := Logger()

	pkg, err := source.Load(cfg.Dir, source.Config{Arch: cfg.Arch, Tags: cfg.Tags})
	if err != nil {
		return nil, err
	}
	log.Debug("loaded package",
		zap.String("dir", pkg.Dir),
		zap.String("package", pkg.Raw.Name),
		zap.Strings("files", pkg.Files),
		zap.Int("blocks", len(pkg.Raw.Blocks)),
	)

	set, wrappers, err := Analyze(pkg.Raw, cfg.Arch, cfg.Types)
	if err != nil {
		return nil, err
	}

	src, err := emit.File(emit.Options{
		Package: set.Package,
		Tags:    cfg.Constraint,
		Command: cfg.Command,
	}, wrappers)
	if err != nil {
		return nil, err
	}

	output := cfg.Output
	if output == "" {
		output = set.Package + "_mmio.go"
	}
	if !filepath.IsAbs(output) {
		output = filepath.Join(cfg.Dir, output)
	}

	return &Result{Set: set, Wrappers: wrappers, Output: output, Source: src}, nil
}

// Run generates and writes the output file. An unchanged file is not rewritten.
func Run(cfg Config) (*Result, error) {
	res, err := Generate(cfg)
	if err != nil {
		return nil, err
	}

	if old, err := os.ReadFile(res.Output); err == nil && bytes.Equal(old, res.Source) {
		Logger().Info("output unchanged", zap.String("path", res.Output))
		return res, nil
	}
	if err := os.WriteFile(res.Output, res.Source, 0o644); err != nil {
		return nil, errors.Wrap(errors.PhaseEmit, errors.KindInvalidInput, err, "write "+res.Output)
	}
	Logger().Info("wrote file",
		zap.String("path", res.Output),
		zap.Int("blocks", len(res.Wrappers)),
		zap.Int("bytes", len(res.Source)),
	)
	return res, nil
}
