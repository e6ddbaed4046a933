package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFromDirectory_Hjson(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "prompts", "narrative")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := `{
  # overrides the built-in prompt
  name: Terse analysis
  system_prompt: Be terse.
  user_prompt_template: NPV is {{.NPV}}
}`
	if err := os.WriteFile(filepath.Join(dir, "analysis.hjson"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	RegisterDefaults(r)
	if err := LoadFromDirectory(r, base); err != nil {
		t.Fatal(err)
	}

	pt, err := r.GetPrompt(PromptIDs.NarrativeAnalysis)
	if err != nil {
		t.Fatal(err)
	}
	if pt.SystemPrompt != "Be terse." || pt.Category != "narrative" {
		t.Errorf("loaded prompt: %+v", pt)
	}

	out, err := RenderUserPrompt(pt, NewContext().Set("NPV", "1 000"))
	if err != nil {
		t.Fatal(err)
	}
	if out != "NPV is 1 000" {
		t.Errorf("rendered: %q", out)
	}
}

func TestLoadFromDirectory_Missing(t *testing.T) {
	if err := LoadFromDirectory(NewRegistry(), t.TempDir()); err == nil {
		t.Error("expected error for missing prompts dir")
	}
}

func TestRenderUserPrompt_MissingVariable(t *testing.T) {
	pt, err := Get().GetPrompt(PromptIDs.NarrativeAnalysis)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := RenderUserPrompt(pt, NewContext().Set("NPV", "1")); err == nil {
		t.Error("expected error for missing template variables")
	}
}

func TestDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	if r.Count() != 1 {
		t.Fatalf("count: %d", r.Count())
	}
	pt, _ := r.GetPrompt(PromptIDs.NarrativeAnalysis)
	if !strings.Contains(pt.UserPromptTmpl, "{{.Payback}}") {
		t.Error("default template should reference Payback")
	}
}
