package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/scenegraph/pkg/config"
	"github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/story"
	"github.com/matzehuels/scenegraph/pkg/story/layout"
)

const lighthouseJSON = `{
  "id": "lighthouse",
  "title": "The Lighthouse",
  "scenes": [
    {"id": "shore", "isStartScene": true, "choices": [
      {"id": "c1", "text": "Climb", "targetSceneId": "lamp"},
      {"id": "c2", "text": "Walk", "targetSceneId": "beach"}
    ]},
    {"id": "lamp", "choices": []},
    {"id": "beach", "choices": []}
  ]
}`

const loopJSON = `[
  {"id": "a", "isStartScene": true, "choices": [{"id": "c1", "targetSceneId": "b"}]},
  {"id": "b", "choices": [{"id": "c2", "targetSceneId": "a"}]}
]`

// testEnv is a temporary directory with a config file whose cache lives
// inside the directory.
type testEnv struct {
	dir    string
	config string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Cache.Dir = filepath.Join(dir, "cache")
	cfg.Store.Dir = filepath.Join(dir, "scenarios")
	path := filepath.Join(dir, "config.toml")
	if err := cfg.Write(path); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return testEnv{dir: dir, config: path}
}

func (e testEnv) file(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (e testEnv) run(args ...string) error {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(append(args, "--config", e.config))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestLayoutCommand(t *testing.T) {
	env := newTestEnv(t)
	input := env.file(t, "story.json", lighthouseJSON)
	applied := filepath.Join(env.dir, "positioned.json")

	if err := env.run("layout", input, "--apply", applied); err != nil {
		t.Fatalf("layout: %v", err)
	}

	l, err := layout.ReadLayoutFile(filepath.Join(env.dir, "story.layout.json"))
	if err != nil {
		t.Fatalf("read layout: %v", err)
	}
	if got := l.Positions()["shore"]; got != (story.Position{X: 125, Y: 0}) {
		t.Errorf("shore = %+v", got)
	}

	sc, err := story.ImportScenario(applied)
	if err != nil {
		t.Fatalf("read applied scenario: %v", err)
	}
	for _, s := range sc.Scenes {
		if s.Position == nil {
			t.Errorf("scene %s has no position", s.ID)
		}
	}

	entries, _ := os.ReadDir(filepath.Join(env.dir, "cache"))
	if len(entries) == 0 {
		t.Error("layout was not cached")
	}
}

func TestLayoutCommandFlags(t *testing.T) {
	env := newTestEnv(t)
	input := env.file(t, "story.json", lighthouseJSON)
	out := filepath.Join(env.dir, "wide.json")

	if err := env.run("layout", input, "-o", out, "--hspace", "100", "--no-cache"); err != nil {
		t.Fatalf("layout: %v", err)
	}
	l, err := layout.ReadLayoutFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if got := l.Positions()["beach"].X; got != 100 {
		t.Errorf("beach.X = %v, want 100", got)
	}
}

func TestLayoutGraphQLInput(t *testing.T) {
	env := newTestEnv(t)
	input := env.file(t, "response.json", `{"data": {"scenarioById": {
		"mongoId": "65f0", "title": "Lighthouse",
		"scenesList": [
			{"mongoId": "s1", "isStartScene": true, "choices": [{"mongoId": "c1", "toSceneId": {"mongoId": "s2"}}]},
			{"mongoId": "s2", "choices": []}
		]}}}`)

	if err := env.run("layout", input, "--graphql"); err != nil {
		t.Fatalf("layout: %v", err)
	}
	l, err := layout.ReadLayoutFile(filepath.Join(env.dir, "response.layout.json"))
	if err != nil {
		t.Fatal(err)
	}
	if l.ScenarioID != "65f0" || len(l.Edges) != 1 {
		t.Errorf("layout = %+v", l)
	}
}

func TestValidateCommand(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run("validate", env.file(t, "ok.json", lighthouseJSON)); err != nil {
		t.Errorf("acyclic scenario: %v", err)
	}

	err := env.run("validate", env.file(t, "loop.json", loopJSON))
	if !errors.Is(err, errors.ErrCodeCycleDetected) {
		t.Errorf("cyclic scenario: err = %v, want CYCLE_DETECTED", err)
	}

	if err := env.run("validate", filepath.Join(env.dir, "missing.json")); err == nil {
		t.Error("missing file: want error")
	}
}

func TestRenderAndVisualize(t *testing.T) {
	env := newTestEnv(t)
	input := env.file(t, "story.json", lighthouseJSON)

	if err := env.run("render", input, "-f", "dot,json", "--labels"); err != nil {
		t.Fatalf("render: %v", err)
	}
	dot, err := os.ReadFile(filepath.Join(env.dir, "story.dot"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(dot), "Climb") {
		t.Errorf("dot lacks edge labels:\n%s", dot)
	}

	layoutFile := filepath.Join(env.dir, "story.layout.json")
	if _, err := os.Stat(layoutFile); err != nil {
		t.Fatalf("json artifact: %v", err)
	}

	out := filepath.Join(env.dir, "again.dot")
	if err := env.run("visualize", layoutFile, "-f", "dot", "-o", out); err != nil {
		t.Fatalf("visualize: %v", err)
	}
	again, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(again), "digraph G {") {
		t.Errorf("visualize output = %s", again)
	}
}

func TestRenderRejectsCycles(t *testing.T) {
	env := newTestEnv(t)
	input := env.file(t, "loop.json", loopJSON)

	err := env.run("render", input, "-f", "dot", "--reject-cycles")
	if !errors.Is(err, errors.ErrCodeCycleDetected) {
		t.Errorf("err = %v, want CYCLE_DETECTED", err)
	}
	if err := env.run("render", input, "-f", "pdf"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestCacheClear(t *testing.T) {
	env := newTestEnv(t)
	input := env.file(t, "story.json", lighthouseJSON)
	if err := env.run("layout", input); err != nil {
		t.Fatal(err)
	}
	if err := env.run("cache", "clear", "--expired"); err != nil {
		t.Fatalf("cache clear --expired: %v", err)
	}
	if entries, _ := os.ReadDir(filepath.Join(env.dir, "cache")); len(entries) == 0 {
		t.Fatal("prune removed live entries")
	}
	if err := env.run("cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if entries, _ := os.ReadDir(filepath.Join(env.dir, "cache")); len(entries) != 0 {
		t.Errorf("cache dir not empty after clear: %d entries", len(entries))
	}
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.toml")
	env := testEnv{dir: dir, config: path}

	if err := env.run("layout", "whatever.json"); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing explicit config: err = %v, want FILE_NOT_FOUND", err)
	}

	if err := env.run("config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := config.Load(path); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
	if err := env.run("config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}
	if err := env.run("config", "init", "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"png", []string{"png"}},
		{"svg, dot,,json", []string{"svg", "dot", "json"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestArtifactPath(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		formats []string
		format  string
		want    string
	}{
		{"FromInput", "", []string{"svg", "png"}, "png", "dir/story.png"},
		{"JSONIsLayoutFile", "", []string{"json"}, "json", "dir/story.layout.json"},
		{"SingleOutputFile", "out.svg", []string{"svg"}, "svg", "out.svg"},
		{"OutputAsBase", "out/map", []string{"svg", "dot"}, "dot", "out/map.dot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := artifactWriteParams{input: "dir/story.json", output: tt.output, formats: tt.formats}
			if got := artifactPath(p, tt.format); got != tt.want {
				t.Errorf("artifactPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrimLayoutSuffix(t *testing.T) {
	if got := trimLayoutSuffix("a/story.layout.json"); got != "a/story.json" {
		t.Errorf("got %q", got)
	}
	if got := trimLayoutSuffix("plain.json"); got != "plain.json" {
		t.Errorf("got %q", got)
	}
}

func TestLayoutFlagsOptions(t *testing.T) {
	base := layout.Options{HorizontalSpacing: 250, LevelSpacing: 200, MaxDepth: 50}
	f := layoutFlags{vspace: 120, strict: true}
	got := f.options(base)
	want := layout.Options{HorizontalSpacing: 250, LevelSpacing: 120, MaxDepth: 50, StrictStart: true}
	if got != want {
		t.Errorf("options() = %+v, want %+v", got, want)
	}
}

func TestCompleteFormats(t *testing.T) {
	got, _ := completeFormats(nil, nil, "")
	if !reflect.DeepEqual(got, renderFormats) {
		t.Errorf("empty prefix = %v", got)
	}

	got, _ = completeFormats(nil, nil, "svg,dot,p")
	want := []string{"svg,dot,png", "svg,dot,json"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("completeFormats() = %v, want %v", got, want)
	}
}

func TestCompletionCommand(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out strings.Builder
	root.SetOut(&out)
	root.SetArgs([]string{"completion", "bash", "--config", filepath.Join(t.TempDir(), "missing.toml")})
	if err := root.Execute(); err != nil {
		t.Fatalf("completion: %v", err)
	}
	if !strings.Contains(out.String(), "scenegraph") {
		t.Error("bash completion does not mention the binary")
	}
}
