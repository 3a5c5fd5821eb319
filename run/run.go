// Package run implements the CLI command actions: laying out flow documents
// into page layouts and dumping layouts for inspection.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"folio/docfile"
	"folio/engine"
	"folio/flow"
	"folio/layout"
	"folio/shape"
	"folio/state"
)

// Run is the `layout` command action: reads flow document XML from SOURCE
// and writes the computed page layout as YAML under DESTINATION.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("layout")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Overwrite = cmd.Bool("overwrite")

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("input source was not found (%s): %w", src, err)
	}
	if fi.Mode().IsDir() {
		return processDir(ctx, src, dst, log)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("unexpected path mode for (%s)", src)
	}
	return processDocument(ctx, src, filepath.Base(src), dst, log)
}

// processDir lays out every .xml document under dir, keeping the relative
// directory structure on output. Files are processed in natural order so
// chapter-10 follows chapter-9.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) error {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() || !strings.EqualFold(filepath.Ext(path), ".xml") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
		return nil
	}
	sort.Sort(natural.StringSlice(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processDocument(ctx, path, src, dst, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
	}
	return nil
}

// layoutResult is the YAML document written for one processed input.
type layoutResult struct {
	Source    string         `yaml:"source"`
	Pages     int            `yaml:"pages"`
	Passes    int            `yaml:"passes"`
	Converged bool           `yaml:"converged"`
	Layout    *layout.Layout `yaml:"layout"`
}

// processDocument lays out a single document. "src" is the source path
// relative to the original input (used for output naming), "dst" the output
// directory.
func processDocument(ctx context.Context, path, src, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string

	log.Info("Layout starting", zap.String("from", src))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Layout ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)),
				zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("layout panic: %v", r)
		} else {
			log.Info("Layout completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	res, err := layoutDocument(ctx, path, log)
	if err != nil {
		return err
	}
	if res.Warnings != nil {
		log.Warn("Layout produced warnings", zap.Error(res.Warnings))
	}

	outputName = buildOutputPath(src, dst, len(res.Layout.Pages), env)
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	data, err := yaml.Marshal(&layoutResult{
		Source:    src,
		Pages:     len(res.Layout.Pages),
		Passes:    res.Passes,
		Converged: res.Converged,
		Layout:    res.Layout,
	})
	if err != nil {
		return fmt.Errorf("unable to serialize layout: %w", err)
	}
	if err := os.WriteFile(outputName, data, 0644); err != nil {
		return fmt.Errorf("unable to write layout: %w", err)
	}

	if env.Rpt != nil {
		env.Rpt.StoreData(fmt.Sprintf("layout/%s.yaml", strings.TrimSuffix(src, filepath.Ext(src))), data)
		env.Rpt.StoreData(fmt.Sprintf("layout/%s.tree", strings.TrimSuffix(src, filepath.Ext(src))),
			[]byte(layout.Dump(res.Layout)))
	}
	return nil
}

// layoutDocument reads a document and runs the layout engine over it with
// the deterministic reference measurer.
func layoutDocument(ctx context.Context, path string, log *zap.Logger) (*engine.Result, error) {
	env := state.EnvFromContext(ctx)

	doc, err := docfile.ReadFile(path, log)
	if err != nil {
		return nil, fmt.Errorf("unable to parse document (%s): %w", path, err)
	}

	measurer := shape.NewMeasurer(shape.Options{}, log)
	eng := engine.New(measurer.Measure, engine.Config{
		ResolveBodyTokens:         env.Cfg.Engine.ResolveBodyTokens,
		ResolveHeaderFooterTokens: env.Cfg.Engine.ResolveHeaderFooterTokens,
		MaxCacheEntries:           env.Cfg.Engine.CacheEntries,
		Log:                       log,
	})

	res, err := eng.Layout(ctx, engine.Request{
		Blocks:  doc.Blocks,
		Options: doc.Options(env.Cfg.Page.Options()),
		Headers: variantSet(doc.Headers),
		Footers: variantSet(doc.Footers),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to lay out document (%s): %w", path, err)
	}
	return res, nil
}

func variantSet(variants map[flow.Variant][]flow.Block) *engine.HeaderFooterSet {
	if len(variants) == 0 {
		return nil
	}
	return &engine.HeaderFooterSet{Variants: variants}
}

// Dump is the `dump` command action: lays out SOURCE and prints the layout
// tree to DESTINATION or stdout.
func Dump(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("dump")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	res, err := layoutDocument(ctx, src, log)
	if err != nil {
		return err
	}

	out := os.Stdout
	if fname := cmd.Args().Get(1); len(fname) > 0 {
		out, err = os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()
	}
	if _, err := fmt.Fprint(out, layout.Dump(res.Layout)); err != nil {
		return fmt.Errorf("unable to write layout dump: %w", err)
	}
	return nil
}
