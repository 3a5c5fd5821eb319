package run

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"

	"folio/config"
	"folio/state"
)

const testDoc = `<document>
	<page width="612" height="792" margin-top="72" margin-right="72" margin-bottom="72" margin-left="72"/>
	<body>
		<p id="p1">Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do
			eiusmod tempor incididunt ut labore et dolore magna aliqua.</p>
		<pagebreak/>
		<p id="p2">Second page content.</p>
	</body>
	<footer><p>page <field kind="pageNumber"/> of <field kind="pageCount"/></p></footer>
</document>`

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("loading default configuration: %v", err)
	}
	env.Cfg = cfg
	env.Log = zaptest.NewLogger(t)
	return ctx
}

func writeTestDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing test document: %v", err)
	}
	return path
}

func TestLayoutDocument(t *testing.T) {
	ctx := testContext(t)
	env := state.EnvFromContext(ctx)
	path := writeTestDoc(t, "doc.xml", testDoc)

	res, err := layoutDocument(ctx, path, env.Log)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if len(res.Layout.Pages) != 2 {
		t.Errorf("expected 2 pages, got %d", len(res.Layout.Pages))
	}
	if !res.Converged {
		t.Error("layout should converge")
	}
	if res.Footers == nil && res.PageFooters == nil {
		t.Error("footer layout missing from result")
	}
}

func TestProcessDocument(t *testing.T) {
	ctx := testContext(t)
	env := state.EnvFromContext(ctx)
	path := writeTestDoc(t, "doc.xml", testDoc)
	dst := t.TempDir()

	if err := processDocument(ctx, path, "doc.xml", dst, env.Log); err != nil {
		t.Fatalf("process: %v", err)
	}

	out := filepath.Join(dst, "doc.yaml")
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	var result layoutResult
	if err := yaml.Unmarshal(data, &result); err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	if result.Pages != 2 || !result.Converged || result.Layout == nil {
		t.Errorf("unexpected result: pages=%d converged=%v", result.Pages, result.Converged)
	}

	// existing output without overwrite permission is an error
	if err := processDocument(ctx, path, "doc.xml", dst, env.Log); err == nil {
		t.Error("expected overwrite refusal")
	}
	env.Overwrite = true
	if err := processDocument(ctx, path, "doc.xml", dst, env.Log); err != nil {
		t.Errorf("overwrite enabled, got %v", err)
	}
}

func TestProcessDirNaturalOrder(t *testing.T) {
	ctx := testContext(t)
	env := state.EnvFromContext(ctx)
	srcDir := t.TempDir()
	dst := t.TempDir()

	for _, name := range []string{"ch-10.xml", "ch-2.xml", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(srcDir, name), []byte(testDoc), 0o600); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	if err := processDir(ctx, srcDir, dst, env.Log); err != nil {
		t.Fatalf("process dir: %v", err)
	}
	for _, want := range []string{"ch-10.yaml", "ch-2.yaml"} {
		if _, err := os.Stat(filepath.Join(dst, want)); err != nil {
			t.Errorf("missing output %s: %v", want, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dst, "notes.yaml")); err == nil {
		t.Error("non-xml input must be skipped")
	}
}

func TestBuildOutputPath(t *testing.T) {
	ctx := testContext(t)
	env := state.EnvFromContext(ctx)

	// the default template keeps the source name
	got := buildOutputPath("chapter one.xml", "/out", 3, env)
	if got != filepath.Join("/out", "chapter one.yaml") {
		t.Errorf("default naming: %q", got)
	}

	env.Cfg.Document.OutputNameTemplate = "{{ .Name }}/pages-{{ .Pages }}"
	got = buildOutputPath("doc.xml", "/out", 3, env)
	if got != filepath.Join("/out", "doc", "pages-3.yaml") {
		t.Errorf("subdir template: %q", got)
	}

	// broken template falls back to the default name
	env.Cfg.Document.OutputNameTemplate = "{{ .NoSuchField }}"
	got = buildOutputPath("doc.xml", "/out", 3, env)
	if got != filepath.Join("/out", "doc.yaml") {
		t.Errorf("fallback naming: %q", got)
	}
}

func TestBuildOutputPathTransliterate(t *testing.T) {
	ctx := testContext(t)
	env := state.EnvFromContext(ctx)
	env.Cfg.Document.OutputNameTemplate = ""
	env.Cfg.Document.FileNameTransliterate = true

	got := buildOutputPath("Глава первая.xml", "/out", 1, env)
	base := filepath.Base(got)
	if strings.ContainsAny(base, " ") || base == "Глава первая.yaml" {
		t.Errorf("transliterated name: %q", base)
	}
	if !strings.HasSuffix(base, ".yaml") {
		t.Errorf("extension lost: %q", base)
	}
}
