package run

import (
	"bytes"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"folio/config"
	"folio/state"
)

const outputExt = ".yaml"

// Values holds the variables available to the output name template.
type Values struct {
	Context string
	// Name is the source file base name without extension.
	Name  string
	Pages int
}

// buildOutputPath constructs the output file path for one processed document,
// honoring the configured name template, file name cleanup and optional
// transliteration. Template failures fall back to the default name.
func buildOutputPath(src, dst string, pages int, env *state.LocalEnv) string {
	outDir := filepath.Join(dst, filepath.Dir(src))
	defaultFile := buildDefaultFileName(src, env)

	if env.Cfg.Document.OutputNameTemplate == "" {
		return filepath.Join(outDir, defaultFile)
	}

	expanded, err := expandOutputNameTemplate(src, pages, env)
	if err != nil {
		env.Log.Warn("Unable to prepare output filename", zap.Error(err))
		return filepath.Join(outDir, defaultFile)
	}
	expanded = filepath.FromSlash(expanded)

	segments := splitAndCleanPath(expanded)
	if len(segments) == 0 {
		return filepath.Join(outDir, defaultFile)
	}

	fileName := cleanPathSegment(segments[len(segments)-1], env) + outputExt
	dirParts := append([]string{outDir}, segments[:len(segments)-1]...)
	for i := 1; i < len(dirParts); i++ {
		dirParts[i] = cleanPathSegment(dirParts[i], env)
	}
	return filepath.Join(append(dirParts, fileName)...)
}

func buildDefaultFileName(src string, env *state.LocalEnv) string {
	baseName := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	if env.Cfg.Document.FileNameTransliterate {
		baseName = slug.Make(baseName)
	}
	return config.CleanFileName(baseName) + outputExt
}

func expandOutputNameTemplate(src string, pages int, env *state.LocalEnv) (string, error) {
	tmpl, err := template.New(string(config.OutputNameTemplateFieldName)).
		Funcs(sprig.FuncMap()).
		Parse(env.Cfg.Document.OutputNameTemplate)
	if err != nil {
		return "", err
	}

	values := Values{
		Context: string(config.OutputNameTemplateFieldName),
		Name:    strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		Pages:   pages,
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// splitAndCleanPath splits an expanded template result on path separators,
// dropping empty segments so a template cannot escape the output directory.
func splitAndCleanPath(p string) []string {
	var segments []string
	for _, seg := range strings.Split(p, string(filepath.Separator)) {
		seg = strings.TrimSpace(seg)
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		segments = append(segments, seg)
	}
	return segments
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Document.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
